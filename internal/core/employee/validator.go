package employee

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
)

// 項目名です。スナップショットもこの順序で生成されます。
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldDepartment = "department"
	FieldPosition   = "position"
	FieldLocation   = "location"
	FieldManager    = "manager"
	FieldIsActive   = "is_active"
	FieldHireDate   = "hire_date"
)

// DateLayout は hire_date の受け付け形式です。
const DateLayout = "2006-01-02"

const (
	minNameLength  = 2
	minPhoneDigits = 10

	maxTextLength  = 100
	maxEmailLength = 255
	maxPhoneLength = 20
)

var (
	fieldOrder = []string{
		FieldName, FieldEmail, FieldPhone, FieldDepartment, FieldPosition,
		FieldLocation, FieldManager, FieldIsActive, FieldHireDate,
	}

	// CreateRequired は作成時の必須項目です。
	CreateRequired = []string{FieldName, FieldEmail, FieldDepartment}

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Fields は検証済みの入力項目です。nil のポインタは「未指定」を表しますが、
// 任意の文字列項目 (phone, position, location, manager) は present に含まれていれば NULL への更新を表します。
type Fields struct {
	Name       *string
	Email      *string
	Phone      *string
	Department *string
	Position   *string
	Location   *string
	Manager    *string
	IsActive   *bool
	HireDate   *time.Time

	present map[string]struct{}
}

// Has は項目が入力に含まれていたかどうかを返します。
func (f *Fields) Has(field string) bool {
	if f == nil {
		return false
	}
	_, ok := f.present[field]
	return ok
}

// Empty は認識できる項目が一つも含まれていない場合に true を返します。
func (f *Fields) Empty() bool {
	return f == nil || len(f.present) == 0
}

func (f *Fields) mark(field string) {
	if f.present == nil {
		f.present = make(map[string]struct{})
	}
	f.present[field] = struct{}{}
}

// Snapshot は入力に含まれていた項目のみを定義順で監査用スナップショットに変換します。
func (f *Fields) Snapshot() *audit.Snapshot {
	s := audit.NewSnapshot()
	if f == nil {
		return s
	}
	for _, key := range fieldOrder {
		if !f.Has(key) {
			continue
		}
		switch key {
		case FieldName:
			s.Set(key, *f.Name)
		case FieldEmail:
			s.Set(key, *f.Email)
		case FieldDepartment:
			s.Set(key, *f.Department)
		case FieldPhone:
			s.Set(key, stringOrNil(f.Phone))
		case FieldPosition:
			s.Set(key, stringOrNil(f.Position))
		case FieldLocation:
			s.Set(key, stringOrNil(f.Location))
		case FieldManager:
			s.Set(key, stringOrNil(f.Manager))
		case FieldIsActive:
			s.Set(key, *f.IsActive)
		case FieldHireDate:
			s.Set(key, f.HireDate.Format(DateLayout))
		}
	}
	return s
}

// apply は入力に含まれる項目を e に反映します。
func (f *Fields) apply(e *Employee) {
	if f.Has(FieldName) {
		e.Name = *f.Name
	}
	if f.Has(FieldEmail) {
		e.Email = *f.Email
	}
	if f.Has(FieldDepartment) {
		e.Department = *f.Department
	}
	if f.Has(FieldPhone) {
		e.Phone = cloneString(f.Phone)
	}
	if f.Has(FieldPosition) {
		e.Position = cloneString(f.Position)
	}
	if f.Has(FieldLocation) {
		e.Location = cloneString(f.Location)
	}
	if f.Has(FieldManager) {
		e.Manager = cloneString(f.Manager)
	}
	if f.Has(FieldIsActive) {
		e.IsActive = *f.IsActive
	}
	if f.Has(FieldHireDate) {
		e.HireDate = cloneTime(f.HireDate)
	}
}

// Validate は生の入力を正規化・検証します。requiredFields に含まれる項目は必須です。
// ストアにはアクセスしません。未知のキーは無視されます。
func Validate(payload map[string]any, requiredFields ...string) (*Fields, error) {
	for _, field := range requiredFields {
		raw, ok := payload[field]
		if !ok || raw == nil {
			return nil, required(field)
		}
		s, err := toText(field, raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, required(field)
		}
	}

	f := &Fields{}

	if raw, ok := payload[FieldName]; ok {
		name, err := requiredText(FieldName, raw)
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(name) < minNameLength {
			return nil, &FieldError{Field: FieldName, Kind: ErrTooShort, Message: "name must be at least 2 characters long"}
		}
		if err := checkLength(FieldName, name, maxTextLength); err != nil {
			return nil, err
		}
		f.Name = &name
		f.mark(FieldName)
	}

	if raw, ok := payload[FieldEmail]; ok {
		email, err := requiredText(FieldEmail, raw)
		if err != nil {
			return nil, err
		}
		email = strings.ToLower(email)
		if !emailPattern.MatchString(email) {
			return nil, invalidFormat(FieldEmail, "invalid email format")
		}
		if err := checkLength(FieldEmail, email, maxEmailLength); err != nil {
			return nil, err
		}
		f.Email = &email
		f.mark(FieldEmail)
	}

	if raw, ok := payload[FieldPhone]; ok {
		phone, err := optionalText(FieldPhone, raw)
		if err != nil {
			return nil, err
		}
		if phone != nil && countDigits(*phone) < minPhoneDigits {
			return nil, invalidFormat(FieldPhone, "phone number must contain at least 10 digits")
		}
		if phone != nil {
			if err := checkLength(FieldPhone, *phone, maxPhoneLength); err != nil {
				return nil, err
			}
		}
		f.Phone = phone
		f.mark(FieldPhone)
	}

	if raw, ok := payload[FieldDepartment]; ok {
		department, err := requiredText(FieldDepartment, raw)
		if err != nil {
			return nil, err
		}
		if err := checkLength(FieldDepartment, department, maxTextLength); err != nil {
			return nil, err
		}
		f.Department = &department
		f.mark(FieldDepartment)
	}

	for _, field := range []string{FieldPosition, FieldLocation, FieldManager} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		v, err := optionalText(field, raw)
		if err != nil {
			return nil, err
		}
		if v != nil {
			if err := checkLength(field, *v, maxTextLength); err != nil {
				return nil, err
			}
		}
		switch field {
		case FieldPosition:
			f.Position = v
		case FieldLocation:
			f.Location = v
		case FieldManager:
			f.Manager = v
		}
		f.mark(field)
	}

	if raw, ok := payload[FieldIsActive]; ok {
		active := toBool(raw)
		f.IsActive = &active
		f.mark(FieldIsActive)
	}

	if raw, ok := payload[FieldHireDate]; ok && raw != nil {
		s, isString := raw.(string)
		if !isString {
			return nil, invalidFormat(FieldHireDate, "invalid date format, use YYYY-MM-DD")
		}
		if s = strings.TrimSpace(s); s != "" {
			d, err := time.Parse(DateLayout, s)
			if err != nil {
				return nil, invalidFormat(FieldHireDate, "invalid date format, use YYYY-MM-DD")
			}
			f.HireDate = &d
			f.mark(FieldHireDate)
		}
	}

	return f, nil
}

func requiredText(field string, raw any) (string, error) {
	if raw == nil {
		return "", required(field)
	}
	s, err := toText(field, raw)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", required(field)
	}
	return s, nil
}

func optionalText(field string, raw any) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := toText(field, raw)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func toText(field string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool, int, int32, int64:
		return fmt.Sprint(v), nil
	default:
		return "", invalidFormat(field, fmt.Sprintf("'%s' must be a string", field))
	}
}

// toBool は is_active を真偽値に変換します。
// 文字列は strconv.ParseBool が解釈できればその値、それ以外は空でなければ true です。
// 数値は 0 以外が true、配列とオブジェクトは要素があれば true です。
func toBool(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		s := strings.TrimSpace(v)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func checkLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return invalidFormat(field, fmt.Sprintf("%s must be at most %d characters long", field, limit))
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
