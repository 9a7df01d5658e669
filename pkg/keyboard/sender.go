package keyboard

// Keys is the part of a HID keyboard the Sender drives. Codes are TinyGo
// keycodes as returned by KeyCode and ModifierCode.
type Keys interface {
	Down(code uint16) error
	Up(code uint16) error
}

// Sender presses bound keys. Several buttons may share a key or a
// modifier, so each is held until the last button using it is released.
type Sender struct {
	kb   Keys
	mods [8]int
	keys map[uint16]int
}

// NewSender returns a Sender typing on kb.
func NewSender(kb Keys) *Sender {
	return &Sender{kb: kb, keys: make(map[uint16]int)}
}

// KeyDown holds the modifiers in mods, then the key with HID usage code.
// If the key cannot be pressed the modifiers taken for it are let go again.
func (s *Sender) KeyDown(code uint16, mods uint8) error {
	var taken uint8
	for bit := 0; bit < 8; bit++ {
		m := uint8(1) << bit
		if mods&m == 0 {
			continue
		}
		if s.mods[bit] == 0 {
			if err := s.kb.Down(ModifierCode(m)); err != nil {
				s.releaseMods(taken)
				return err
			}
		}
		s.mods[bit]++
		taken |= m
	}

	k := KeyCode(code)
	if s.keys[k] == 0 {
		if err := s.kb.Down(k); err != nil {
			s.releaseMods(taken)
			return err
		}
	}
	s.keys[k]++
	return nil
}

// KeyUp drops one hold of the key and of each modifier in mods, releasing
// those no other press still holds.
func (s *Sender) KeyUp(code uint16, mods uint8) error {
	var err error
	k := KeyCode(code)
	switch s.keys[k] {
	case 0:
	case 1:
		delete(s.keys, k)
		err = s.kb.Up(k)
	default:
		s.keys[k]--
	}
	if merr := s.releaseMods(mods); err == nil {
		err = merr
	}
	return err
}

func (s *Sender) releaseMods(mods uint8) error {
	var err error
	for bit := 0; bit < 8; bit++ {
		m := uint8(1) << bit
		if mods&m == 0 || s.mods[bit] == 0 {
			continue
		}
		s.mods[bit]--
		if s.mods[bit] == 0 {
			if uerr := s.kb.Up(ModifierCode(m)); err == nil {
				err = uerr
			}
		}
	}
	return err
}
