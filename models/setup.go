package models

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	GormDB *gorm.DB
}

var DB *Database

func ConnectDatabase() {

	database, err := gorm.Open(postgres.Open(os.Getenv("DATABASE_URL")), &gorm.Config{})

	if err != nil {
		panic("Failed to connect to database!")
	}

	err = database.AutoMigrate(&Organisation{}, &Token{}, &Roadmap{}, &RoadmapRepository{},
		&GithubInstallation{}, &IssueVote{})
	if err != nil {
		panic("Failed to migrate database!")
	}

	DB = &Database{GormDB: database}
}
