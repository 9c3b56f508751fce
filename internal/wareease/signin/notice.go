package signin

// Level selects how a notice is styled.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a transient message shown next to the form.
type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// IsZero reports whether there is nothing to show.
func (n Notice) IsZero() bool {
	return n.Text == ""
}

func errorNotice(text string) Notice {
	return Notice{Level: LevelError, Text: text}
}
