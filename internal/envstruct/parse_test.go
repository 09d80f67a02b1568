package envstruct_test

import (
	"strings"
	"testing"
	"time"

	"github.com/myrjola/casefile/internal/envstruct"
	"github.com/stretchr/testify/require"
)

func TestPopulate(t *testing.T) {
	type args struct {
		v         any
		lookupEnv func(string) (string, bool)
	}
	unset := func(_ string) (string, bool) { return "", false }
	tests := []struct {
		name    string
		args    args
		want    any
		wantErr error
	}{
		{
			name:    "nil",
			args:    args{v: nil, lookupEnv: unset},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "not pointer",
			args:    args{v: struct{}{}, lookupEnv: unset},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "empty struct",
			args: args{v: &struct{}{}, lookupEnv: unset},
			want: &struct{}{},
		},
		{
			name: "empty env",
			args: args{
				v: &struct {
					Addr string `env:"CASEFILE_ADDR"`
				}{},
				lookupEnv: unset,
			},
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name: "picks correct env variable",
			args: args{
				v: &struct {
					Addr       string `env:"CASEFILE_ADDR"`
					CaseName   string `env:"CASEFILE_CASE"`
					OtherValue string
				}{},
				lookupEnv: func(s string) (string, bool) { return strings.ToLower(s), true },
			},
			want: &struct {
				Addr       string `env:"CASEFILE_ADDR"`
				CaseName   string `env:"CASEFILE_CASE"`
				OtherValue string
			}{Addr: "casefile_addr", CaseName: "casefile_case"},
		},
		{
			name: "handles default values of every supported type",
			args: args{
				v: &struct {
					Addr    string        `env:"CASEFILE_ADDR" envDefault:"localhost:4000"`
					TTL     time.Duration `env:"CASEFILE_SESSION_TTL" envDefault:"12h"`
					PerMin  int           `env:"CASEFILE_HINTS_PER_MINUTE" envDefault:"6"`
					Verbose bool          `env:"CASEFILE_VERBOSE" envDefault:"true"`
				}{},
				lookupEnv: unset,
			},
			want: &struct {
				Addr    string        `env:"CASEFILE_ADDR" envDefault:"localhost:4000"`
				TTL     time.Duration `env:"CASEFILE_SESSION_TTL" envDefault:"12h"`
				PerMin  int           `env:"CASEFILE_HINTS_PER_MINUTE" envDefault:"6"`
				Verbose bool          `env:"CASEFILE_VERBOSE" envDefault:"true"`
			}{Addr: "localhost:4000", TTL: 12 * time.Hour, PerMin: 6, Verbose: true},
		},
		{
			name: "rejects malformed int",
			args: args{
				v: &struct {
					PerMin int `env:"CASEFILE_HINTS_PER_MINUTE"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "six", true },
			},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "rejects unsupported types",
			args: args{
				v: &struct {
					Ratio float64 `env:"CASEFILE_RATIO"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "0.5", true },
			},
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.args.v
			err := envstruct.Populate(v, tt.args.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
		})
	}
}
