package equipment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldKind はカテゴリ固有属性の種類
type FieldKind string

const (
	KindScalar   FieldKind = "scalar"
	KindBoolean  FieldKind = "boolean"
	KindRange    FieldKind = "range"
	KindChoice   FieldKind = "choice"
	KindGroup    FieldKind = "group"
	KindRepeated FieldKind = "repeated"
)

// FieldDef はカテゴリの属性定義
// Kind に応じて使うフィールドが決まる
type FieldDef struct {
	Name    string     `json:"name" bson:"name"`
	Label   string     `json:"label,omitempty" bson:"label,omitempty"`
	Kind    FieldKind  `json:"kind" bson:"kind"`
	Unit    string     `json:"unit,omitempty" bson:"unit,omitempty"`       // scalar, range
	Min     *float64   `json:"min,omitempty" bson:"min,omitempty"`         // range
	Max     *float64   `json:"max,omitempty" bson:"max,omitempty"`         // range
	Options []string   `json:"options,omitempty" bson:"options,omitempty"` // choice
	Fields  []FieldDef `json:"fields,omitempty" bson:"fields,omitempty"`   // group, repeated
}

// Value は属性値
type Value struct {
	Kind   FieldKind          `json:"kind" bson:"kind"`
	Text   string             `json:"text,omitempty" bson:"text,omitempty"`
	Bool   bool               `json:"bool,omitempty" bson:"bool,omitempty"`
	Number float64            `json:"number,omitempty" bson:"number,omitempty"`
	Choice string             `json:"choice,omitempty" bson:"choice,omitempty"`
	Group  map[string]Value   `json:"group,omitempty" bson:"group,omitempty"`
	Items  []map[string]Value `json:"items,omitempty" bson:"items,omitempty"`
}

func Text(s string) Value                     { return Value{Kind: KindScalar, Text: s} }
func Bool(b bool) Value                       { return Value{Kind: KindBoolean, Bool: b} }
func Number(n float64) Value                  { return Value{Kind: KindRange, Number: n} }
func Choice(s string) Value                   { return Value{Kind: KindChoice, Choice: s} }
func Group(m map[string]Value) Value          { return Value{Kind: KindGroup, Group: m} }
func Repeated(items []map[string]Value) Value { return Value{Kind: KindRepeated, Items: items} }

// String はフィルタ比較用の文字列表現を返す
func (v Value) String() string {
	switch v.Kind {
	case KindScalar:
		return v.Text
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindRange:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindChoice:
		return v.Choice
	case KindGroup:
		keys := make([]string, 0, len(v.Group))
		for k := range v.Group {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.Group[k].String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindRepeated:
		return fmt.Sprintf("[%d]", len(v.Items))
	}
	return ""
}

// Category は機材カテゴリと属性スキーマ
type Category struct {
	ID     string
	Name   string
	Fields []FieldDef
}

// Check は属性値の種類がスキーマと一致するかを確認する
// 必須項目や書式などの詳細な検証は行わない
func (c *Category) Check(attrs map[string]Value) error {
	return checkFields(c.Fields, attrs, "")
}

func checkFields(defs []FieldDef, attrs map[string]Value, prefix string) error {
	byName := make(map[string]FieldDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	for name, v := range attrs {
		def, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: %s%s", ErrUnknownAttribute, prefix, name)
		}
		if err := checkValue(def, v, prefix+name); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(def FieldDef, v Value, path string) error {
	if def.Kind != v.Kind {
		return fmt.Errorf("%w: %s (%s != %s)", ErrAttributeKindMismatch, path, v.Kind, def.Kind)
	}
	switch def.Kind {
	case KindRange:
		if (def.Min != nil && v.Number < *def.Min) || (def.Max != nil && v.Number > *def.Max) {
			return fmt.Errorf("%w: %s", ErrAttributeOutOfRange, path)
		}
	case KindChoice:
		for _, o := range def.Options {
			if o == v.Choice {
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrAttributeOutOfRange, path)
	case KindGroup:
		return checkFields(def.Fields, v.Group, path+".")
	case KindRepeated:
		for i, item := range v.Items {
			if err := checkFields(def.Fields, item, fmt.Sprintf("%s[%d].", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
