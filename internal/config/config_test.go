package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitViper(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		key  string
		want any
	}{
		{name: "default write mode", key: "orders.write_mode", want: "transaction"},
		{name: "default payment method", key: "orders.payment_method", want: "razorpay"},
		{name: "default item limit", key: "orders.max_items", want: 50},
		{
			name: "env overrides nested key",
			env:  map[string]string{"ORDERS_WRITE_MODE": "compensate"},
			key:  "orders.write_mode",
			want: "compensate",
		},
		{
			name: "env overrides port",
			env:  map[string]string{"SERVER_HTTP_PORT": "9000"},
			key:  "server.http.port",
			want: "9000",
		},
		{
			name: "secret only from env",
			env:  map[string]string{"AUTH_JWT_SECRET": "s3cret"},
			key:  "auth.jwt_secret",
			want: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			initViper()

			switch want := tt.want.(type) {
			case int:
				assert.Equal(t, want, viper.GetInt(tt.key))
			default:
				assert.Equal(t, want, viper.GetString(tt.key))
			}
		})
	}
}

func TestInitViper_CORSDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	initViper()

	assert.Equal(t, []string{"*"}, viper.GetStringSlice("server.http.cors.allowed_origins"))
	assert.Contains(t, viper.GetStringSlice("server.http.cors.allowed_headers"), "X-Client-Info")
	assert.Contains(t, viper.GetStringSlice("server.http.cors.allowed_methods"), "OPTIONS")
}
