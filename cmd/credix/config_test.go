package main

import (
	"testing"

	"github.com/opensource-finance/credix/internal/domain"
)

func TestNewLogger(t *testing.T) {
	if newLogger(domain.LoggingConfig{Level: "bogus", Format: "text"}) == nil {
		t.Error("expected logger")
	}
}
