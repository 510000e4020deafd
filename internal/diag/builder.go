package diag

func New(sev Severity, code Code, primary Anchor, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Anchor, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(at Anchor, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Anchor: at, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title})
	return d
}
