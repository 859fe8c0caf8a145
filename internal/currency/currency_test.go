package currency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/expensight/internal/currency"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "upper", in: "USD", want: "USD"},
		{name: "lower with spaces", in: "  inr ", want: "INR"},
		{name: "two letters", in: "eu", want: "EU"},
		{name: "unknown iso", in: "QQQ", wantErr: true},
		{name: "too long", in: "USDT", wantErr: true},
		{name: "too short", in: "U", wantErr: true},
		{name: "digits", in: "U1D", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := currency.Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, currency.ErrInvalidCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
