package session

// Resolve maps a human-supplied identifier to a session. A literal
// session id is returned directly without touching the store; whether
// the workspace exists is the caller's problem on first use. Anything
// else is matched against the correlation markers of the given kind,
// scanning most-recent-first.
//
// Correlation values are assigned by the code host and are not globally
// unique across repositories or time. When a value has been reused the
// scan order makes the newest session win; that is a deliberate
// heuristic, not a uniqueness guarantee.
func (s *Store) Resolve(identifier string, kind CorrelationKind) (Session, error) {
	if IsSessionID(identifier) {
		return s.Get(identifier), nil
	}

	sessions, err := s.List()
	if err != nil {
		return Session{}, err
	}

	for _, sess := range sessions {
		if value, ok := s.ReadCorrelation(sess, kind); ok && value == identifier {
			return sess, nil
		}
	}

	return Session{}, NotFoundError{Identifier: identifier, Kind: kind}
}
