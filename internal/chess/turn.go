package chess

// Turn holds the color to move next. The zero value starts with White.
type Turn struct {
	color Color
}

func NewTurn(first Color) Turn {
	return Turn{color: first}
}

func (t *Turn) Current() Color {
	return t.color
}

// Advance hands the move to the other side. Callers only invoke it after a
// committed move.
func (t *Turn) Advance() {
	t.color = t.color.Opposite()
}
