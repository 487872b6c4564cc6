package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	Setup("DEBUG")
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	Setup("warn")
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	Setup("chatty")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
