package listview

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/fault"
	"github.com/northgate/atrium/internal/resource"
)

// Action is a user-initiated write.
type Action string

const (
	ActionDelete      Action = "delete"
	ActionUpdateField Action = "updateField"
	ActionReorder     Action = "reorder"
)

// Payload carries the arguments of an action. Field and Value are used by
// updateField, Move by reorder; delete takes none.
type Payload struct {
	Field string
	Value any
	Move  api.Move
}

// Validate rejects a payload before anything is sent.
func (p Payload) Validate(action Action, d resource.Descriptor) error {
	errs := validation.Errors{}
	switch action {
	case ActionDelete:
	case ActionUpdateField:
		if err := validation.Validate(p.Field, validation.Required); err != nil {
			errs["field"] = err
		}
	case ActionReorder:
		if !d.Reorderable {
			errs["action"] = validation.NewError("listview.reorder.unsupported", fmt.Sprintf("%s cannot be reordered", d.Label))
		}
		switch {
		case p.Move.Index != nil:
			if err := validation.Validate(*p.Move.Index, validation.Min(0)); err != nil {
				errs["index"] = err
			}
		case p.Move.Direction != api.MoveUp && p.Move.Direction != api.MoveDown:
			errs["direction"] = validation.NewError("listview.reorder.direction", "must be up or down")
		}
	default:
		errs["action"] = validation.NewError("listview.action.unknown", fmt.Sprintf("unknown action %q", action))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Mutate performs action on the row with id.
func (v *View) Mutate(ctx context.Context, action Action, id string, p Payload) error {
	op := string(action) + " " + string(v.d.Kind)
	if err := validation.Validate(id, validation.Required); err != nil {
		return v.rejected(op, fmt.Errorf("id %w", err))
	}
	if err := p.Validate(action, v.d); err != nil {
		return v.rejected(op, err)
	}
	if v.isClosed() {
		return ErrClosed
	}

	switch action {
	case ActionDelete:
		return v.delete(ctx, op, id)
	case ActionUpdateField:
		return v.updateField(ctx, op, id, p.Field, p.Value)
	default:
		return v.reorder(ctx, op, id, p.Move)
	}
}

// Delete removes the row with id after the user confirms.
func (v *View) Delete(ctx context.Context, id string) error {
	return v.Mutate(ctx, ActionDelete, id, Payload{})
}

// UpdateField sets one field, showing the new value before the server
// answers.
func (v *View) UpdateField(ctx context.Context, id, field string, value any) error {
	return v.Mutate(ctx, ActionUpdateField, id, Payload{Field: field, Value: value})
}

// Toggle flips a boolean field or advances an enum field of a held row.
func (v *View) Toggle(ctx context.Context, id, field string) error {
	r, ok := v.store.Get(id)
	if !ok {
		return v.rejected("toggle "+string(v.d.Kind), fmt.Errorf("%s is not on this page", id))
	}
	current, _ := r.Value(field)
	return v.UpdateField(ctx, id, field, v.d.Next(field, current))
}

// Reorder asks the server to move the row with id.
func (v *View) Reorder(ctx context.Context, id string, move api.Move) error {
	return v.Mutate(ctx, ActionReorder, id, Payload{Move: move})
}

// Create posts a new resource. The Created event inserts it; without a live
// channel the view reloads instead.
func (v *View) Create(ctx context.Context, fields map[string]any) (*resource.Resource, error) {
	op := "create " + string(v.d.Kind)
	if err := v.validateCreate(fields); err != nil {
		return nil, v.rejected(op, err)
	}
	if v.isClosed() {
		return nil, ErrClosed
	}

	created, err := v.backend.Create(ctx, v.d, fields)
	if err != nil {
		return nil, v.failed(op, "Create", err)
	}
	v.log.Info("created", zap.String("op", op))
	if !v.Live() {
		v.reload("created while offline")
	}
	v.say(Success, "Created "+singular(v.d))
	return created, nil
}

func (v *View) validateCreate(fields map[string]any) error {
	rules := make([]*validation.KeyRules, 0, len(v.d.Required))
	for _, key := range v.d.Required {
		rules = append(rules, validation.Key(key, validation.Required))
	}
	return validation.Validate(fields, validation.Map(rules...).AllowExtraKeys())
}

func (v *View) delete(ctx context.Context, op, id string) error {
	label := id
	version := ""
	if r, ok := v.store.Get(id); ok {
		if t := r.String(v.d.Title()); t != "" {
			label = t
		}
		version = r.Version
	}

	prompt := fmt.Sprintf("Delete %s %q?", singular(v.d), label)
	if v.confirm == nil || !v.confirm(ctx, prompt) {
		v.say(Info, "Delete cancelled")
		return ErrDeclined
	}

	if err := v.backend.Delete(ctx, v.d, id, version); err != nil {
		return v.failed(op, "Delete", err)
	}
	v.log.Info("deleted", zap.String("id", id), zap.Bool("live", v.Live()))

	// The Deleted event removes the row; without it, remove it here. Both
	// paths are no-ops once the row is gone.
	if !v.Live() {
		v.onDeleted(id)
	}
	v.say(Success, fmt.Sprintf("Deleted %q", label))
	return nil
}

func (v *View) updateField(ctx context.Context, op, id, field string, value any) error {
	version := ""
	if r, ok := v.store.Get(id); ok {
		version = r.Version
	}
	tok, held := v.store.Provision(id, field, value)
	if held {
		v.changed()
	}

	updated, err := v.backend.Update(ctx, v.d, id, version, map[string]any{field: value})
	if err != nil {
		if held {
			v.store.Rollback(tok)
			v.changed()
		}
		return v.failed(op, "Update", err)
	}
	if held {
		v.store.Commit(tok, updated)
		v.changed()
	}
	v.log.Info("field updated", zap.String("id", id), zap.String("field", field))
	v.say(Success, fmt.Sprintf("Updated %s", field))
	return nil
}

func (v *View) reorder(ctx context.Context, op, id string, move api.Move) error {
	rows, err := v.backend.Reorder(ctx, v.d, id, move)
	if err != nil {
		return v.failed(op, "Reorder", err)
	}
	v.log.Info("reordered", zap.String("id", id), zap.Stringer("move", move))
	switch {
	case len(rows) > 0:
		v.onReordered(rows)
	case !v.Live():
		v.reload("reordered while offline")
	}
	v.say(Success, "Order updated")
	return nil
}

// rejected reports a pre-flight validation failure.
func (v *View) rejected(op string, err error) error {
	ferr := &fault.Error{Kind: fault.Validation, Op: op, Message: err.Error(), Err: err}
	v.noticeError(op, ferr)
	return ferr
}

// failed reports a failed write and resynchronizes when the server says the
// rows are out of date.
func (v *View) failed(op, what string, err error) error {
	v.log.Warn("mutation failed", zap.String("op", op), zap.Stringer("kind", fault.KindOf(err)), zap.Error(err))
	v.escalate(err)
	v.noticeError(what, err)
	if fault.Resync(err) {
		v.reload(op + " " + fault.KindOf(err).String())
	}
	return err
}

func singular(d resource.Descriptor) string {
	switch d.Kind {
	case resource.Carousel:
		return "slide"
	case resource.Category:
		return "category"
	}
	return string(d.Kind)
}
