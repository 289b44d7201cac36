// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
	"github.com/tangovm/tango/asm"
)

type settings struct {
	HexMode         bool   `doc:"hexadecimal input mode"`
	Verbose         bool   `doc:"verbose assembler output"`
	Format          string `doc:"assembler output format"`
	MemDumpBytes    int    `doc:"default number of memory bytes to dump"`
	DisasmLines     int    `doc:"default number of lines to disassemble"`
	LoadAddr        uint16 `doc:"default address for loading files"`
	NextDisasmAddr  uint16 `doc:"address of next disassembly"`
	NextMemDumpAddr uint16 `doc:"address of next memory dump"`
}

func newSettings() *settings {
	return &settings{
		HexMode:         false,
		Verbose:         false,
		Format:          "binary",
		MemDumpBytes:    64,
		DisasmLines:     10,
		LoadAddr:        0,
		NextDisasmAddr:  0,
		NextMemDumpAddr: 0,
	}
}

// Validators normalize a new setting value or reject it.
var settingsValidators = map[string]func(v any) (any, error){
	"Format": func(v any) (any, error) {
		f, err := asm.ParseFormat(v.(string))
		if err != nil {
			return nil, err
		}
		return f.String(), nil
	},
	"MemDumpBytes": positive,
	"DisasmLines":  positive,
}

func positive(v any) (any, error) {
	if v.(int) <= 0 {
		return nil, errors.New("value must be positive")
	}
	return v, nil
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	settingsType := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, settingsType.NumField())
	for i := 0; i < len(settingsFields); i++ {
		f := settingsType.Field(i)
		doc, _ := f.Tag.Lookup("doc")
		settingsFields[i] = settingsField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
			doc:   doc,
		}
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[i])
	}
}

func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, f := range settingsFields {
		v := value.Field(i)
		var s string
		switch f.kind {
		case reflect.String:
			s = fmt.Sprintf("    %-16s \"%s\"", f.name, v.String())
		case reflect.Uint16:
			s = fmt.Sprintf("    %-16s $%04X", f.name, uint16(v.Uint()))
		default:
			s = fmt.Sprintf("    %-16s %v", f.name, v)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", s, f.doc)
	}
}

func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}

	vIn := reflect.ValueOf(value)
	if (f.kind == reflect.String && vIn.Type().Kind() != reflect.String) ||
		(f.kind != reflect.String && vIn.Type().Kind() == reflect.String) ||
		!vIn.Type().ConvertibleTo(f.typ) {
		return errors.New("invalid type")
	}
	vInConverted := vIn.Convert(f.typ)

	if validate, ok := settingsValidators[f.name]; ok {
		v, err := validate(vInConverted.Interface())
		if err != nil {
			return fmt.Errorf("%s: %v", f.name, err)
		}
		vInConverted = reflect.ValueOf(v)
	}

	vOut := reflect.ValueOf(s).Elem().Field(f.index).Addr().Elem()
	vOut.Set(vInConverted)

	return nil
}
