package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		{"SET:PTT", "SET", "PTT", "SET:PTT", "PTT.BK"},
		{"MAI:ABC", "MAI", "ABC", "MAI:ABC", "ABC.BK"},
		{"PTT", "SET", "PTT", "SET:PTT", "PTT.BK"},
		{"PTT.BK", "SET", "PTT", "SET:PTT", "PTT.BK"},
		{"cpall", "SET", "CPALL", "SET:CPALL", "CPALL.BK"},
		{"set:cpall", "SET", "CPALL", "SET:CPALL", "CPALL.BK"},
		{"  SET:PTT  ", "SET", "PTT", "SET:PTT", "PTT.BK"},
		{"NYSE:AAPL", "NYSE", "AAPL", "NYSE:AAPL", "AAPL.BK"},
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseTicker(tt.input)

			if result.Exchange != tt.wantExchange {
				t.Errorf("Exchange = %q, want %q", result.Exchange, tt.wantExchange)
			}
			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
			if result.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", result.String(), tt.wantString)
			}
			if result.EODHDSymbol() != tt.wantEODHD {
				t.Errorf("EODHDSymbol() = %q, want %q", result.EODHDSymbol(), tt.wantEODHD)
			}
		})
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{" ptt", "CPALL.BK", "", "PTT", "set:aot"})
	assert.Equal(t, []string{"AOT", "CPALL", "PTT"}, got)
}
