package lifecycle

// Menu holds the single action currently opened for input. Only enabled
// actions can be opened and refreshing eligibility closes an action that is
// no longer enabled.
type Menu struct {
	eligibility Eligibilities
	active      Action
}

// NewMenu creates a closed Menu over the given eligibility.
func NewMenu(es Eligibilities) *Menu {
	return &Menu{eligibility: es}
}

// Open makes a the active action.
func (m *Menu) Open(a Action) (Eligibility, error) {
	e, err := m.eligibility.Require(a)
	if err != nil {
		return Eligibility{}, err
	}
	m.active = a
	return e, nil
}

// Active returns the active action and its eligibility, ok is false if no
// action is open.
func (m *Menu) Active() (Eligibility, bool) {
	if m.active == "" {
		return Eligibility{}, false
	}
	return m.eligibility.Get(m.active)
}

// Close closes the active action if any.
func (m *Menu) Close() {
	m.active = ""
}

// Refresh replaces eligibility with a recomputed one.
func (m *Menu) Refresh(es Eligibilities) {
	m.eligibility = es
	if m.active == "" {
		return
	}
	if _, err := es.Require(m.active); err != nil {
		m.active = ""
	}
}
