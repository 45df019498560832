package exam

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	MinQuestionCount = 5
	MaxQuestionCount = 20
)

// Parameters describe the exam to generate.
type Parameters struct {
	Language      string         `json:"language" validate:"required"`
	Difficulty    Level          `json:"difficulty" validate:"required,oneof=A1 A2 B1 B2 C1 C2"`
	GrammarTopics []string       `json:"grammarTopics" validate:"min=1,dive,required"`
	QuestionTypes []QuestionType `json:"questionTypes" validate:"min=1,dive,oneof=multiple unique fillInBlank translateText"`
	QuestionCount int            `json:"questionCount" validate:"min=5,max=20"`
	Topic         string         `json:"topic,omitempty"`
}

// DefaultParameters returns the parameters a fresh generation session starts
// with. Topics and types are empty and must be chosen before generating.
func DefaultParameters() Parameters {
	return Parameters{
		Language:      "english",
		Difficulty:    LevelB1,
		QuestionCount: 10,
	}
}

// Normalize trims and de-duplicates the topic and type sets, keeping the
// order in which values were first given.
func (p Parameters) Normalize() Parameters {
	p.Language = strings.TrimSpace(p.Language)
	p.Topic = strings.TrimSpace(p.Topic)
	p.GrammarTopics = uniqueStrings(p.GrammarTopics)

	seen := make(map[QuestionType]bool, len(p.QuestionTypes))
	types := make([]QuestionType, 0, len(p.QuestionTypes))
	for _, t := range p.QuestionTypes {
		t = QuestionType(strings.TrimSpace(string(t)))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	p.QuestionTypes = types
	return p
}

// ParamsError reports every parameter that failed validation. Messages are
// keyed by the JSON field name.
type ParamsError struct {
	Fields map[string]string
}

func (e *ParamsError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "invalid exam parameters: " + strings.Join(msgs, "; ")
}

var (
	validateOnce sync.Once
	validate     *govalidator.Validate
	trans        ut.Translator
)

func setupValidator() {
	validate = govalidator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// ValidateParameters checks p after normalizing it. It returns a
// *ParamsError when any field is invalid.
func ValidateParameters(p Parameters) error {
	validateOnce.Do(setupValidator)

	p = p.Normalize()
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate parameters: %w", err)
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return &ParamsError{Fields: fields}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
