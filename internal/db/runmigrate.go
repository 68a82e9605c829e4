package db

import "log"

// RunMigrations connects and brings the schema up to date, then
// returns. Backs the -migrate-only flag so deploys can run the
// migration step separately from serving. MIGRATIONS=1 selects the
// golang-migrate SQL path, same as at server start.
func RunMigrations() error {
	log.Println("Running database migrations...")
	_, err := ConnectAndMigrate()
	return err
}
