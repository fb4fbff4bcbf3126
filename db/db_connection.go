package db

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const dbAddrEnvVar string = "DB_ADDR"
const dbAddrDefault string = "localhost:28015"
const dbNameEnvVar string = "DB_NAME"
const dbNameDefault string = "menphina"
const baseDbPoolConnections int = 2
const maxDbPoolConnections int = 20

//ErrStoreUnavailable is wrapped by any repository error caused by the store
//transport rather than the stored data.
var ErrStoreUnavailable = errors.New("role reaction store unavailable")

//ErrStoreCorrupt is wrapped by repository errors caused by a stored document
//which cannot be decoded.
var ErrStoreCorrupt = errors.New("role reaction store document corrupt")

//DBConnection contains a handle to the database
type DBConnection struct {
	session *rethink.Session
}

//Init creates a new connection pool for the database at the address provided by the relevant environment variable
func Init() (*DBConnection, error) {
	//Get DB name from env
	dbName, exists := os.LookupEnv(dbNameEnvVar)
	if !exists {
		logrus.Warnf("DB name was not provided, falling back to default `%v`", dbNameDefault)
		dbName = dbNameDefault
	}
	//Get DB address from env
	rethinkDBAddr, exists := os.LookupEnv(dbAddrEnvVar)
	if !exists {
		logrus.Warnf("`%v` env variable was not set, falling back to default `%v`", dbAddrEnvVar, dbAddrDefault)
		rethinkDBAddr = dbAddrDefault
	}
	//Create new connection pool to db
	session, err := rethink.Connect(rethink.ConnectOpts{
		Address:    rethinkDBAddr,
		Database:   dbName,
		InitialCap: baseDbPoolConnections,
		MaxOpen:    maxDbPoolConnections,
	})
	if err != nil {
		logrus.Errorf("Failed to create connection to rethinkdb instance at address %v because %v.", rethinkDBAddr, err)
		return nil, fmt.Errorf("%w: cannot connect to %v: %v", ErrStoreUnavailable, rethinkDBAddr, err)
	}

	res := DBConnection{
		session: session,
	}

	//Ensure database and required tables exist, and wait for it all to be ready
	res.CreateDatabase(dbName)
	res.CreateTables()

	return &res, nil
}

//Close cleanly terminates the database connection
func (db *DBConnection) Close() {
	logrus.Info("Terminating DB connection...")
	_ = db.session.Close()
}

//CreateTables ensures all tables needed exist.
func (db *DBConnection) CreateTables() {
	//role reactions table
	_, err := rethink.TableCreate(roleReactionsTable).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to create role reactions table due to error %v", err)
	}
	//slash command registrations table
	_, err = rethink.TableCreate(slashCommandsTable).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to create slash commands table due to error %v", err)
	}
	//Wait for all tables
	rethink.Table(roleReactionsTable).Wait()
	rethink.Table(slashCommandsTable).Wait()
}

//CreateDatabase ensures the menphina database exists
func (db *DBConnection) CreateDatabase(dbName string) {
	_, err := rethink.DBCreate(dbName).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to create %v DB due to error %v", dbName, err)
	}
	rethink.DB(dbName).Wait()
}
