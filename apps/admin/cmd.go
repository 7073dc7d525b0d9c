package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/storage/database"
)

// mockable
var (
	migrationRunFunc = database.RunMigrationCommand
	createDBFunc     = database.CreateIfNotExist

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db *sqlx.DB
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database if it does not exist")
	fmt.Println("  migrate [up|up-by-one|down|redo|reset|status|version] - run database migrations (default: up)")
	fmt.Println("  seed -school SCHOOL_ID - load sample route stops and a scheduled trip for development")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedSchool := seedCmd.String("school", "", "The school ID to seed data under.")

	switch args[1] {
	case "createdb":
		return createDBFunc(core.Conf)
	case "migrate":
		return cli.migrate(args[2:])
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedSchool == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedSchool)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	arguments := make([]string, 0)
	if len(args) > 0 {
		command = args[0]
		arguments = append(arguments, args[1:]...)
	}
	return migrationRunFunc(cli.db.DB, command, arguments...)
}
