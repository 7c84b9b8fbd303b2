package protocol

import "time"

// Config holds transport settings shared by the remote host client and server.
type Config struct {
	Addr           string        `yaml:"addr" env:"ADDR"`
	Path           string        `yaml:"path" env:"PATH"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	MaxMessageSize int64         `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
	BufferSize     int           `yaml:"buffer_size" env:"BUFFER_SIZE"`
}

// DefaultConfig returns settings suitable for a host on the local machine.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:7070",
		Path:           "/host",
		ReadTimeout:    time.Minute,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4 << 20,
		BufferSize:     4096,
	}
}
