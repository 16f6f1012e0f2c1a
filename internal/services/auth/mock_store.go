package auth

// MockStore is an in-memory auth store for testing.
type MockStore struct {
	tokens map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(tool string, token string) error {
	m.tokens[NormalizeTool(tool)] = token
	return nil
}

func (m *MockStore) GetToken(tool string) (string, error) {
	token, ok := m.tokens[NormalizeTool(tool)]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (m *MockStore) DeleteToken(tool string) error {
	key := NormalizeTool(tool)
	if _, ok := m.tokens[key]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
