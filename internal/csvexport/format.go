package csvexport

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// FormatValue renders a single cell. The second result is false for values
// with a numeric, boolean or null representation; only text is subject to
// formula neutralisation.
func FormatValue(v any, nullAs string) (string, bool) {
	switch val := v.(type) {
	case nil:
		return nullAs, false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case bool:
		return strconv.FormatBool(val), false
	case int:
		return strconv.FormatInt(int64(val), 10), false
	case int8:
		return strconv.FormatInt(int64(val), 10), false
	case int16:
		return strconv.FormatInt(int64(val), 10), false
	case int32:
		return strconv.FormatInt(int64(val), 10), false
	case int64:
		return strconv.FormatInt(val, 10), false
	case uint:
		return strconv.FormatUint(uint64(val), 10), false
	case uint8:
		return strconv.FormatUint(uint64(val), 10), false
	case uint16:
		return strconv.FormatUint(uint64(val), 10), false
	case uint32:
		return strconv.FormatUint(uint64(val), 10), false
	case uint64:
		return strconv.FormatUint(val, 10), false
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), false
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), false
	case json.Number:
		return val.String(), false
	case time.Time:
		return val.Format(time.RFC3339Nano), true
	case uuid.UUID:
		return val.String(), true
	case [16]byte:
		// pgx decodes uuid columns into a bare [16]byte
		return uuid.UUID(val).String(), true
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil {
			return nullAs, false
		}
		return FormatValue(dv, nullAs)
	case fmt.Stringer:
		return val.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nullAs, false
		}
		return FormatValue(rv.Elem().Interface(), nullAs)
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Array && rv.IsNil() {
			return nullAs, false
		}
		b, err := json.Marshal(v)
		if err == nil {
			return string(b), true
		}
	}

	return fmt.Sprint(v), true
}
