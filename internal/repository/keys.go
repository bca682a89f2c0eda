package repository

// Key layout of the local store. The names round-trip with what the portal
// frontend historically wrote to localStorage, so an exported state file
// loads unchanged.
const (
	userKeyPrefix     = "sky266_user_"     // + email -> User JSON
	credKeyPrefix     = "sky266_cred_"     // + email -> bcrypt hash
	progressKeyPrefix = "sky266_progress_" // + user id -> TrainingProgress JSON
	certsKeyPrefix    = "sky266_certs_"    // + user id -> []Certificate JSON
	managerCountKey   = "sky266_manager_count"
	currentUserKey    = "sky266_current_user"
	alertsKey         = "sky266_alerts"
)

func userKey(email string) string {
	return userKeyPrefix + email
}

func credKey(email string) string {
	return credKeyPrefix + email
}

func progressKey(userID string) string {
	return progressKeyPrefix + userID
}

func certsKey(userID string) string {
	return certsKeyPrefix + userID
}
