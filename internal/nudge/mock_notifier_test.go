package nudge

type mockNotifier struct {
	sent []string
	err  error
}

func (m *mockNotifier) SendNudge(email string, streak, hoursLeft int) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}
