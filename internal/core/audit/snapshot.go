package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNonScalarValue はスナップショットにオブジェクトや配列が含まれていた場合に返却されます。
var ErrNonScalarValue = errors.New("audit: snapshot values must be scalar")

// Field はスナップショット内の一項目です。
type Field struct {
	Key   string
	Value any
}

// Snapshot は項目の挿入順を保持する文字列キーのマップです。値はスカラー
// (string, bool, int64, float64, nil) のみを保持し、JSON オブジェクトとして直列化されます。
type Snapshot struct {
	fields []Field
}

// NewSnapshot は空のスナップショットを生成します。
func NewSnapshot() *Snapshot {
	return &Snapshot{fields: []Field{}}
}

// Set は key に value を設定します。既存のキーは位置を保ったまま上書きされます。
func (s *Snapshot) Set(key string, value any) *Snapshot {
	v := normalizeScalar(value)
	for i := range s.fields {
		if s.fields[i].Key == key {
			s.fields[i].Value = v
			return s
		}
	}
	s.fields = append(s.fields, Field{Key: key, Value: v})
	return s
}

// Get は key の値を返します。
func (s *Snapshot) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Len は項目数を返します。
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Keys は挿入順のキー一覧を返します。
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields は項目のコピーを返します。
func (s *Snapshot) Fields() []Field {
	if s == nil {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// MarshalJSON は挿入順を保った JSON オブジェクトを返します。
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("audit: marshal %s: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON は JSON オブジェクトをキー順を保ったまま読み込みます。
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("audit: decode snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("audit: snapshot must be a JSON object")
	}

	fields := []Field{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("audit: decode snapshot key: %w", err)
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("audit: decode snapshot value: %w", err)
		}
		if _, ok := valTok.(json.Delim); ok {
			return fmt.Errorf("%w: %s", ErrNonScalarValue, key)
		}
		fields = append(fields, Field{Key: key, Value: normalizeScalar(valTok)})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("audit: decode snapshot: %w", err)
	}

	s.fields = fields
	return nil
}

// Encode は保存用の JSON を返します。nil のスナップショットは NULL として扱います。
func (s *Snapshot) Encode() ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return s.MarshalJSON()
}

// DecodeSnapshot は保存された JSON からスナップショットを復元します。空の場合は nil を返します。
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	s := &Snapshot{}
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return s, nil
}

func normalizeScalar(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
