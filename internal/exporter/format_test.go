package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"viewership/pkg/contracts/domain"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"float two places", formatFloat(13.4), "13.40"},
		{"float rounds", formatFloat(1.234), "1.23"},
		{"number", formatNumber(1_200_000), "1200000"},
		{"number fraction", formatNumber(120.5), "120.5"},
		{"nullable present", formatNullable(domain.Float(90)), "90"},
		{"nullable missing", formatNullable(domain.Missing()), ""},
		{"int", formatInt(42), "42"},
		{"bool", formatBool(true), "true"},
		{"nil date", formatDate(nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	d := time.Date(2023, time.March, 23, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-03-23", formatDate(&d))
}
