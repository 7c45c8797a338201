package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

var configVars = []string{
	"HOST", "PORT", "LOG_LEVEL", "LOG_FILE_PATH", "SHUTDOWN_TIMEOUT",
	"DEFAULT_WORK_MINUTES", "DEFAULT_SHORT_BREAK_MINUTES", "DEFAULT_LONG_BREAK_MINUTES",
}

// ConfigSuite is a test suite for configuration loading.
type ConfigSuite struct {
	suite.Suite
	saved map[string]string
}

func (s *ConfigSuite) SetupTest() {
	s.saved = make(map[string]string)
	for _, key := range configVars {
		if value, ok := os.LookupEnv(key); ok {
			s.saved[key] = value
		}
		os.Unsetenv(key)
	}
}

func (s *ConfigSuite) TearDownTest() {
	for _, key := range configVars {
		os.Unsetenv(key)
	}
	for key, value := range s.saved {
		os.Setenv(key, value)
	}
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal("127.0.0.1", cfg.Host)
	s.Equal(5000, cfg.Port)
	s.Equal("info", cfg.LogLevel)
	s.Equal("logs/pomodoro_sessions.log", cfg.SessionLogPath)
	s.Equal(10*time.Second, cfg.ShutdownTimeout)
	s.Equal(25, cfg.WorkMinutes)
	s.Equal(5, cfg.ShortBreakMinutes)
	s.Equal(15, cfg.LongBreakMinutes)
}

func (s *ConfigSuite) TestOverrides() {
	os.Setenv("HOST", "0.0.0.0")
	os.Setenv("PORT", "8080")
	os.Setenv("LOG_FILE_PATH", "/tmp/sessions.log")
	os.Setenv("DEFAULT_WORK_MINUTES", "50")

	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal("0.0.0.0", cfg.Host)
	s.Equal(8080, cfg.Port)
	s.Equal("/tmp/sessions.log", cfg.SessionLogPath)
	s.Equal(50, cfg.WorkMinutes)
}

// Invalid numeric values must fail at startup, not surface later.
func (s *ConfigSuite) TestInvalidNumericFailsFast() {
	os.Setenv("PORT", "not-a-port")

	_, err := Load()
	s.Error(err)
}

func (s *ConfigSuite) TestValidate_TableDriven() {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"defaults are valid", nil, false},
		{"zero work minutes", map[string]string{"DEFAULT_WORK_MINUTES": "0"}, true},
		{"negative break minutes", map[string]string{"DEFAULT_SHORT_BREAK_MINUTES": "-5"}, true},
		{"port zero", map[string]string{"PORT": "0"}, true},
		{"port too large", map[string]string{"PORT": "70000"}, true},
		{"valid custom values", map[string]string{"PORT": "9000", "DEFAULT_LONG_BREAK_MINUTES": "20"}, false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			for key, value := range tt.env {
				os.Setenv(key, value)
			}
			defer func() {
				for key := range tt.env {
					os.Unsetenv(key)
				}
			}()

			_, err := Load()
			if tt.wantErr {
				s.Error(err)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ConfigSuite) TestAddr() {
	os.Setenv("HOST", "localhost")
	os.Setenv("PORT", "9999")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal("localhost:9999", cfg.Addr())
}
