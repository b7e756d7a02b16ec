package discord

import (
	"bytes"
	"fmt"
	"strconv"
)

var null = []byte("null")

// Snowflake is a Discord entity identifier. It is sent as a quoted decimal
// string on the wire to avoid precision loss in JSON parsers.
type Snowflake int64

func (s *Snowflake) IsNil() bool {
	return *s == 0
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*s = 0

		return nil
	}

	if b[0] == '"' && len(b) >= 2 {
		b = b[1 : len(b)-1]
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to unmarshal snowflake: %v", err)
	}

	*s = Snowflake(i)

	return nil
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(s)), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// Int64 is an int64 that marshals as a quoted decimal string, used for
// 64 bit permission masks.
type Int64 int64

func (in *Int64) UnmarshalJSON(b []byte) error {
	if b[0] == '"' && len(b) >= 2 {
		b = b[1 : len(b)-1]
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to unmarshal int64: %v", err)
	}

	*in = Int64(i)

	return nil
}

func (in Int64) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(in)), nil
}

func (in Int64) String() string {
	return strconv.FormatInt(int64(in), 10)
}

func int64ToStringBytes(s int64) []byte {
	buf := make([]byte, 0, 24)

	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, s, 10)
	buf = append(buf, '"')

	return buf
}
