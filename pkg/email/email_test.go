package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessageStripsLineBreaks(t *testing.T) {
	msg := string(BuildMessage("a@b.c", "Olá\r\nBcc: x@y.z", "corpo"))
	assert.Contains(t, msg, "Subject: Olá  Bcc: x@y.z\r\n")
	assert.Contains(t, msg, "\r\n\r\ncorpo\r\n")
}

func TestSendWithoutHostIsNoop(t *testing.T) {
	s := NewSender("", "587", "from@x.y", "")
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Send("a@b.c", "s", "b"))
}
