package model

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Optional хранит значение поля вместе с признаком его присутствия в запросе.
// Для указательных T явный null означает "очистить" (Set=true, Value=nil),
// для остальных типов null равносилен отсутствию поля
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some возвращает заполненное значение Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON вызывается только для ключей, присутствующих в JSON
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Set = reflect.TypeOf(&zero).Elem().Kind() == reflect.Pointer
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// MarshalJSON пишет null для отсутствующего значения
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
