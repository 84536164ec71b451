package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NumericalInstabilityError は予測値にNaNやInfが含まれる場合のエラーです。
// 例えばpoisson目的関数でexpがオーバーフローした場合などに発生します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "predict"）
	Values    []float64 // 問題のある値（最大10件）
	Indices   []int     // 問題のある値の行インデックス
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("row %d=%.6g", e.Indices[i], v)
	}
	return fmt.Sprintf("houseprice: numerical instability detected in %s. Values: [%s]", e.Operation, valStr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Ints("indices", e.Indices).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, indices []int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Indices:   indices,
	})
}

// CheckFinite checks that every value is finite and returns a
// NumericalInstabilityError listing the first offending rows otherwise.
func CheckFinite(operation string, values []float64) error {
	var bad []float64
	var idx []int
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, v)
			idx = append(idx, i)
			if len(bad) >= 10 {
				break
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, idx)
	}
	return nil
}

// StabilizeExp computes exp with protection against overflow.
// Clips the input to prevent exp from returning Inf.
func StabilizeExp(value float64) float64 {
	const maxExp = 700.0 // exp(700) is close to the maximum float64
	if value > maxExp {
		return math.Exp(maxExp)
	}
	if value < -maxExp {
		return 0
	}
	return math.Exp(value)
}
