package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

var (
	errNoFile      = errors.New("no file uploaded")
	errNotCSV      = errors.New("upload is not a csv file")
	errRateLimited = errors.New("rate limited")
)

// failure is an error prepared for display: the HTTP status, a stable code
// and a message for the user.
type failure struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
	Hints   []string `json:"hints,omitempty"`

	report bool // unexpected, forward to the reporter
}

// classify maps err to a failure. Input problems are 4xx and shown as is;
// everything else is a 500.
func classify(err error, maxUpload int64) *failure {
	f := &failure{Hints: errors.Hints(err)}

	var (
		loadErr     *errors.ModelLoadError
		maxBytesErr *http.MaxBytesError
		schemaErr   *errors.SchemaError
		parseErr    *errors.ParseError
		valueErr    *errors.ValueError
		dimErr      *errors.DimensionError
		numErr      *errors.NumericalInstabilityError
		panicErr    *errors.PanicError
	)
	switch {
	case errors.As(err, &panicErr):
		f.Status, f.Code, f.report = http.StatusInternalServerError, log.ErrorInternal, true
		f.Message = "Внутренняя ошибка сервера"
		f.Hints = nil
	case errors.As(err, &loadErr):
		f.Status, f.Code, f.report = http.StatusInternalServerError, log.ErrorModelLoad, true
		f.Message = "Не удалось загрузить модель"
		if errors.Is(err, errors.ErrUnsupportedModel) {
			f.Code = log.ErrorUnsupportedModel
		}
	case errors.As(err, &maxBytesErr):
		f.Status, f.Code = http.StatusRequestEntityTooLarge, log.ErrorUploadTooLarge
		f.Message = fmt.Sprintf("Файл слишком большой: допускается не более %d байт", maxUpload)
	case errors.Is(err, errRateLimited):
		f.Status, f.Code = http.StatusTooManyRequests, log.ErrorRateLimited
		f.Message = "Слишком много запросов, повторите попытку позже"
	case errors.Is(err, errNoFile):
		f.Status, f.Code = http.StatusBadRequest, log.ErrorInvalidInput
		f.Message = "Файл не выбран"
	case errors.Is(err, errNotCSV):
		f.Status, f.Code = http.StatusUnsupportedMediaType, log.ErrorInvalidInput
		f.Message = "Ожидается файл в формате CSV"
	case errors.As(err, &schemaErr):
		f.Status, f.Code = http.StatusUnprocessableEntity, log.ErrorSchemaMismatch
		f.Message = "Столбцы файла не совпадают с признаками модели"
		f.Missing, f.Extra = schemaErr.Missing, schemaErr.Extra
		if len(schemaErr.Missing) > 0 {
			f.Details = append(f.Details, "Отсутствуют столбцы: "+strings.Join(schemaErr.Missing, ", "))
		}
		if len(schemaErr.Extra) > 0 {
			f.Details = append(f.Details, "Лишние столбцы: "+strings.Join(schemaErr.Extra, ", "))
		}
		if len(schemaErr.Duplicate) > 0 {
			f.Details = append(f.Details, "Повторяющиеся столбцы: "+strings.Join(schemaErr.Duplicate, ", "))
		}
		if schemaErr.Reason != "" {
			f.Details = append(f.Details, schemaErr.Reason)
		}
	case errors.As(err, &parseErr):
		f.Status, f.Code = http.StatusUnprocessableEntity, log.ErrorInvalidInput
		f.Message = "Не удалось прочитать CSV файл"
		f.Details = []string{parseErr.Error()}
	case errors.Is(err, errors.ErrEmptyData):
		f.Status, f.Code = http.StatusUnprocessableEntity, log.ErrorEmptyData
		f.Message = "Файл не содержит данных"
	case errors.As(err, &dimErr):
		f.Status, f.Code = http.StatusUnprocessableEntity, log.ErrorDimensionMismatch
		f.Message = "Размерность данных не совпадает с моделью"
		f.Details = []string{dimErr.Error()}
	case errors.As(err, &valueErr), errors.As(err, &numErr):
		f.Status, f.Code = http.StatusUnprocessableEntity, log.ErrorInvalidInput
		f.Message = "Некорректные входные данные"
		f.Details = []string{err.Error()}
	default:
		f.Status, f.Code, f.report = http.StatusInternalServerError, log.ErrorInternal, true
		f.Message = "Внутренняя ошибка сервера"
		f.Hints = nil
	}
	return f
}
