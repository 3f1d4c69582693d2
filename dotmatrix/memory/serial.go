package memory

import "log/slog"

// serial is the link port with no cable attached. Starting a transfer
// with the internal clock shifts in 0xFF and completes immediately;
// with the external clock nothing ever arrives.
type serial struct {
	data    uint8
	control uint8
	irq     func()
}

func (s *serial) readSB() uint8 {
	return s.data
}

func (s *serial) writeSB(value uint8) {
	s.data = value
}

func (s *serial) readSC() uint8 {
	return s.control | 0x7E
}

func (s *serial) writeSC(value uint8) {
	s.control = value & 0x81
	if value&0x80 != 0 && value&0x01 != 0 {
		slog.Debug("serial transfer with no peer", "sent", s.data)
		s.data = 0xFF
		s.control &^= 0x80
		s.irq()
	}
}
