// Package wizard drives multi-step forms. Steps are data; a Definition lists
// them and knows how to turn the collected values into a record.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCooldown = 300 * time.Millisecond

var (
	ErrTransitioning  = errors.New("step transition in progress")
	ErrStepIncomplete = errors.New("step incomplete")
	ErrNoSuchStep     = errors.New("no such step")
	ErrUnknownField   = errors.New("unknown field")
	ErrNotLastStep    = errors.New("submit is only allowed from the last step")
	ErrSubmitting     = errors.New("submit already in progress")
)

// StepError names the step that blocked a transition or a submit.
type StepError struct {
	Step int
	ID   string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) incomplete", e.Step+1, e.ID)
}

func (e *StepError) Unwrap() error { return ErrStepIncomplete }

type Kind int

const (
	Text Kind = iota
	Number
	Integer
	Date
	Choice
)

var kindNames = map[Kind]string{Text: "text", Number: "number", Integer: "integer", Date: "date", Choice: "choice"}

func (k Kind) String() string { return kindNames[k] }

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Data holds raw field values as typed by the user.
type Data map[string]string

func (d Data) clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	// RequiredWhen makes a non-optional field conditional.
	RequiredWhen func(Data) bool
	Options      []string
	// Secret values are never echoed back in State.
	Secret bool
}

func (f Field) required(d Data) bool {
	if f.Optional {
		return false
	}
	return f.RequiredWhen == nil || f.RequiredWhen(d)
}

func (f Field) filled(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	switch f.Kind {
	case Number:
		n, err := decimal.NewFromString(value)
		return err == nil && n.IsPositive()
	case Integer:
		n, err := strconv.Atoi(value)
		return err == nil && n > 0
	}
	return true
}

type Step struct {
	ID     string
	Title  string
	Fields []Field
}

type Definition struct {
	Name     string
	Steps    []Step
	Defaults Data
	// OpenEditAtEnd starts edits on the last step.
	OpenEditAtEnd bool
	Seed          func(record interface{}) (Data, error)
	// Build turns the collected data into a record. editing is set for
	// wizards opened with NewEdit.
	Build func(d Data, editing bool) (interface{}, error)
}

func (d *Definition) field(name string) (Field, bool) {
	for _, s := range d.Steps {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Saver persists a built record. editID is empty for new records.
type Saver interface {
	Save(ctx context.Context, record interface{}, editID string) (interface{}, error)
}

type SaverFunc func(ctx context.Context, record interface{}, editID string) (interface{}, error)

func (f SaverFunc) Save(ctx context.Context, record interface{}, editID string) (interface{}, error) {
	return f(ctx, record, editID)
}

type Option func(*Wizard)

func WithCooldown(d time.Duration) Option {
	return func(w *Wizard) { w.cooldown = d }
}

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

type Wizard struct {
	mu              sync.Mutex
	def             *Definition
	editID          string
	current         int
	data            Data
	completed       map[int]bool
	transitionUntil time.Time
	submitting      bool
	cooldown        time.Duration
	now             func() time.Time
}

func New(def *Definition, opts ...Option) *Wizard {
	w := &Wizard{def: def, cooldown: DefaultCooldown, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	w.reset()
	return w
}

// NewEdit seeds the wizard from an existing record.
func NewEdit(def *Definition, editID string, record interface{}, opts ...Option) (*Wizard, error) {
	w := New(def, opts...)
	if def.Seed == nil {
		return nil, fmt.Errorf("%s form cannot edit records", def.Name)
	}
	seeded, err := def.Seed(record)
	if err != nil {
		return nil, err
	}
	for k, v := range seeded {
		w.data[k] = v
	}
	w.editID = editID
	if def.OpenEditAtEnd {
		w.current = len(def.Steps) - 1
	}
	w.recompute()
	return w, nil
}

func (w *Wizard) reset() {
	w.current = 0
	w.editID = ""
	w.data = Data{}
	for _, s := range w.def.Steps {
		for _, f := range s.Fields {
			w.data[f.Name] = ""
		}
	}
	for k, v := range w.def.Defaults {
		w.data[k] = v
	}
	w.transitionUntil = time.Time{}
	w.recompute()
}

func (w *Wizard) recompute() {
	w.completed = make(map[int]bool, len(w.def.Steps))
	for i := range w.def.Steps {
		if w.stepComplete(i) {
			w.completed[i] = true
		}
	}
}

func (w *Wizard) stepComplete(i int) bool {
	if i < 0 || i >= len(w.def.Steps) {
		return false
	}
	for _, f := range w.def.Steps[i].Fields {
		if f.required(w.data) && !f.filled(w.data[f.Name]) {
			return false
		}
	}
	return true
}

func (w *Wizard) transitioning() bool {
	return w.now().Before(w.transitionUntil)
}

func (w *Wizard) moveTo(i int) {
	w.current = i
	w.transitionUntil = w.now().Add(w.cooldown)
}

// IsStepComplete is false for indexes out of range.
func (w *Wizard) IsStepComplete(i int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed[i]
}

func (w *Wizard) Current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Wizard) Data() Data {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data.clone()
}

func (w *Wizard) EditID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editID
}

func (w *Wizard) Definition() *Definition {
	return w.def
}

func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.transitioning() {
		return ErrTransitioning
	}
	if !w.completed[w.current] {
		return &StepError{Step: w.current, ID: w.def.Steps[w.current].ID}
	}
	if w.current >= len(w.def.Steps)-1 {
		return nil
	}
	w.moveTo(w.current + 1)
	return nil
}

// Retreat ignores completeness.
func (w *Wizard) Retreat() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.transitioning() {
		return ErrTransitioning
	}
	if w.current == 0 {
		return nil
	}
	w.moveTo(w.current - 1)
	return nil
}

func (w *Wizard) JumpTo(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.def.Steps) {
		return ErrNoSuchStep
	}
	if w.transitioning() {
		return ErrTransitioning
	}
	if i != w.current {
		w.moveTo(i)
	}
	return nil
}

func (w *Wizard) Set(field, value string) error {
	return w.SetAll(Data{field: value})
}

// SetAll applies every value or none of them.
func (w *Wizard) SetAll(values Data) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name := range values {
		if _, ok := w.def.field(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	for name, value := range values {
		w.data[name] = value
	}
	w.recompute()
	return nil
}

// Submit builds the record and saves it once. Failures keep the collected
// data; success resets the wizard.
func (w *Wizard) Submit(ctx context.Context, saver Saver) (interface{}, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitting
	}
	if w.current != len(w.def.Steps)-1 {
		w.mu.Unlock()
		return nil, ErrNotLastStep
	}
	for i := range w.def.Steps {
		if !w.completed[i] {
			w.mu.Unlock()
			return nil, &StepError{Step: i, ID: w.def.Steps[i].ID}
		}
	}
	record, err := w.def.Build(w.data.clone(), w.editID != "")
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	editID := w.editID
	w.submitting = true
	w.mu.Unlock()

	saved, err := saver.Save(ctx, record, editID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		return nil, err
	}
	w.reset()
	return saved, nil
}

type FieldView struct {
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type StepView struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Complete bool        `json:"complete"`
	Fields   []FieldView `json:"fields"`
}

// Masked replaces filled secret values in State.
const Masked = "********"

type State struct {
	Form          string     `json:"form"`
	Step          int        `json:"step"`
	StepID        string     `json:"stepID"`
	Steps         []StepView `json:"steps"`
	Data          Data       `json:"data"`
	Progress      int        `json:"progress"`
	Editing       bool       `json:"editing"`
	Transitioning bool       `json:"transitioning"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := State{
		Form:          w.def.Name,
		Step:          w.current,
		StepID:        w.def.Steps[w.current].ID,
		Data:          w.data.clone(),
		Editing:       w.editID != "",
		Transitioning: w.transitioning(),
	}
	if n := len(w.def.Steps); n > 1 {
		s.Progress = w.current * 100 / (n - 1)
	}
	for i, step := range w.def.Steps {
		view := StepView{ID: step.ID, Title: step.Title, Complete: w.completed[i]}
		for _, f := range step.Fields {
			if f.Secret && s.Data[f.Name] != "" {
				s.Data[f.Name] = Masked
			}
			view.Fields = append(view.Fields, FieldView{
				Name: f.Name, Kind: f.Kind, Required: f.required(w.data), Options: f.Options,
			})
		}
		s.Steps = append(s.Steps, view)
	}
	return s
}
