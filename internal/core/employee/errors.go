package employee

import (
	"errors"
	"fmt"
)

// 呼び出し側がステータスコードを選べるよう、エラーは以下の分類のいずれかを包みます。
var (
	// ErrRequired は必須項目が欠けている場合に返却されます。
	ErrRequired = errors.New("required")
	// ErrInvalidFormat はメールアドレス・電話番号・日付の形式が不正な場合に返却されます。
	ErrInvalidFormat = errors.New("invalid format")
	// ErrTooShort は氏名が短すぎる場合に返却されます。
	ErrTooShort = errors.New("too short")
	// ErrConflict はメールアドレスが他の社員と重複した場合に返却されます。
	ErrConflict = errors.New("conflict")
	// ErrNotFound は社員が存在しない場合に返却されます。
	ErrNotFound = errors.New("not found")
	// ErrInvalidParameter は一覧取得のページング・ソート・フィルタ指定が不正な場合に返却されます。
	ErrInvalidParameter = errors.New("invalid parameter")
)

var (
	ErrEmployeeNotFound   = fmt.Errorf("employee: %w", ErrNotFound)
	ErrEmailAlreadyExists = &FieldError{Field: "email", Kind: ErrConflict, Message: "email address already exists"}
)

// FieldError は問題のある項目名と分類を保持します。
type FieldError struct {
	Field   string
	Kind    error
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("employee: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("employee: %s: %v", e.Field, e.Kind)
}

// Unwrap は分類エラーを返します。
func (e *FieldError) Unwrap() error {
	return e.Kind
}

func required(field string) error {
	return &FieldError{Field: field, Kind: ErrRequired, Message: fmt.Sprintf("'%s' is required and cannot be empty", field)}
}

func invalidFormat(field, message string) error {
	return &FieldError{Field: field, Kind: ErrInvalidFormat, Message: message}
}

func invalidParameter(field, message string) error {
	return &FieldError{Field: field, Kind: ErrInvalidParameter, Message: message}
}

// FieldOf はエラーが指す項目名を返します。項目に紐づかない場合は空文字列です。
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
