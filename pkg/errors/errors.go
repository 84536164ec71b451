// Package errors はhousepriceアプリケーション全体のエラーハンドリングを提供します。
// cockroachdb/errors をベースに、モデル読み込み・CSV解析・スキーマ検証の
// 構造化されたエラー型を定義します。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	モデルアーティファクトのエラー型
//
// ===========================================================================

// ModelLoadError はモデルアーティファクトの読み込みに失敗した場合のエラーです。
// ファイルが存在しない場合は os.ErrNotExist を、破損している場合は
// ModelFormatError をラップします。
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("houseprice: failed to load model %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ModelLoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("type", "ModelLoadError")
}

// NewModelLoadError は新しいModelLoadErrorを作成し、スタックトレースを付与します。
func NewModelLoadError(path string, err error) error {
	return errors.WithStack(&ModelLoadError{Path: path, Err: err})
}

// ModelFormatError はモデルファイルの内容が解析できない場合のエラーです。
type ModelFormatError struct {
	Section string // "header", "Tree=3", "json" など
	Key     string
	Reason  string
}

func (e *ModelFormatError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("houseprice: malformed model (%s, key %q): %s", e.Section, e.Key, e.Reason)
	}
	return fmt.Sprintf("houseprice: malformed model (%s): %s", e.Section, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ModelFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("section", e.Section).
		Str("key", e.Key).
		Str("reason", e.Reason).
		Str("type", "ModelFormatError")
}

// NewModelFormatError は新しいModelFormatErrorを作成し、スタックトレースを付与します。
func NewModelFormatError(section, key, reason string) error {
	return errors.WithStack(&ModelFormatError{Section: section, Key: key, Reason: reason})
}

// ===========================================================================
//
//	データセットのエラー型
//
// ===========================================================================

// ParseError はアップロードされたCSVの解析に失敗した場合のエラーです。
// Row はヘッダーを除いた1始まりのデータ行番号です（ヘッダー自体は0）。
type ParseError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("houseprice: csv row %d, column %q: %s (got %q)", e.Row, e.Column, e.Reason, e.Value)
	}
	return fmt.Sprintf("houseprice: csv row %d: %s", e.Row, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("row", e.Row).
		Str("column", e.Column).
		Str("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "ParseError")
}

// NewParseError は新しいParseErrorを作成し、スタックトレースを付与します。
func NewParseError(row int, column, value, reason string) error {
	return errors.WithStack(&ParseError{Row: row, Column: column, Value: value, Reason: reason})
}

// SchemaError はアップロードされた列とモデルの特徴量が一致しない場合のエラーです。
type SchemaError struct {
	Missing   []string // モデルが要求するがCSVに無い列
	Extra     []string // CSVにあるがモデルが使わない列
	Duplicate []string // 重複したヘッダー名
	Reason    string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns ["+strings.Join(e.Missing, ", ")+"]")
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected columns ["+strings.Join(e.Extra, ", ")+"]")
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate columns ["+strings.Join(e.Duplicate, ", ")+"]")
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return "houseprice: feature schema mismatch: " + strings.Join(parts, "; ")
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Strs("missing", e.Missing).
		Strs("extra", e.Extra).
		Strs("duplicate", e.Duplicate).
		Str("reason", e.Reason).
		Str("type", "SchemaError")
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースとヒントを付与します。
func NewSchemaError(missing, extra []string) error {
	err := errors.WithStack(&SchemaError{Missing: missing, Extra: extra})
	return errors.WithHint(err, "the uploaded columns must match the features the model was trained on")
}

// NewDuplicateColumnsError は重複したヘッダー名に対するSchemaErrorを作成します。
func NewDuplicateColumnsError(duplicate []string) error {
	return errors.WithStack(&SchemaError{Duplicate: duplicate})
}

// ===========================================================================
//
//	汎用エラー型
//
// ===========================================================================

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("houseprice: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は設定値の検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("houseprice: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("houseprice: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// WithHint はユーザー向けのヒントをエラーに付与します。
func WithHint(err error, hint string) error {
	return errors.WithHint(err, hint)
}

// Hints はエラーチェーンに含まれる全てのヒントを返します。
func Hints(err error) []string {
	return errors.GetAllHints(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrUnsupportedModel は回帰以外のモデルが読み込まれた場合のエラーです。
	ErrUnsupportedModel = New("unsupported model")
)
