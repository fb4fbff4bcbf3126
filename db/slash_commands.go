package db

import (
	"fmt"

	"github.com/menphina-bot/menphina/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const slashCommandsTable string = "SlashCommands"

//GetSlashCommand returns the recorded registration for the named application
//command, or nil if the command has never been registered.
func (db *DBConnection) GetSlashCommand(name string) (*guildmodels.SlashCommandRegistration, error) {
	filter := map[string]interface{}{
		"name": name,
	}
	res, err := rethink.Table(slashCommandsTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up slash command %v in database: %v.", name, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Close()
	var regs []guildmodels.SlashCommandRegistration
	err = res.All(&regs)
	if err != nil {
		logrus.Warnf("Encountered error reading slash command %v from database: %v.", name, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(regs) == 0 {
		return nil, nil
	}
	return &regs[0], nil
}

//RecordSlashCommand stores the ID discord assigned to a registered application
//command. Recording the same name and ID again does nothing; a changed ID
//replaces the old record.
func (db *DBConnection) RecordSlashCommand(name string, commandID string) error {
	existing, err := db.GetSlashCommand(name)
	if err != nil {
		return err
	}
	if existing != nil && existing.CommandID == commandID {
		return nil
	}
	if existing != nil {
		filter := map[string]interface{}{
			"name": name,
		}
		_, err := rethink.Table(slashCommandsTable).Filter(filter).Delete().RunWrite(db.session)
		if err != nil {
			logrus.Warnf("Encountered error replacing slash command record %v: %v.", name, err)
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	reg := guildmodels.SlashCommandRegistration{
		Name:      name,
		CommandID: commandID,
	}
	resp, err := rethink.Table(slashCommandsTable).Insert(reg).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error recording slash command %v in database: %v.", name, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, resp.FirstError)
		logrus.Warnf("Encountered error recording slash command in database: %v", err)
		return err
	}
	return nil
}
