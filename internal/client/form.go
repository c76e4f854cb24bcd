package client

import "context"

// Form captures the fields of a new entry before submission. Fields
// are cleared only after a successful submit so the user can correct
// a rejected entry instead of retyping it.
type Form struct {
	Description string
	AmountText  string
	Type        string
}

func NewForm() *Form {
	return &Form{Type: TypeIncoming}
}

// Submit sends the captured fields through the controller. On success
// the form resets to its initial state.
func (f *Form) Submit(ctx context.Context, c *Controller) (Record, error) {
	record, err := c.Add(ctx, f.Description, f.AmountText, f.Type)
	if err != nil {
		return Record{}, err
	}
	f.Reset()
	return record, nil
}

// Reset clears the fields and restores the default type.
func (f *Form) Reset() {
	f.Description = ""
	f.AmountText = ""
	f.Type = TypeIncoming
}
