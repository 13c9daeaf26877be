package handlers

import (
	"querydesk/ai"
	"querydesk/db"
	"querydesk/service"
)

// @title           querydesk API
// @version         1.0
// @description     Ask questions about the shop database in plain English. The service turns them into read-only SQL, runs it and returns the rows as an HTML table.

// @contact.name   querydesk maintainers

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:9090
// @BasePath  /

// @schemes   http https

type Handlers struct {
	queryService *service.QueryService
	db           *db.DB
	aiService    *ai.AIService
	sqlFilesDir  string
}

func New(queryService *service.QueryService, db *db.DB, aiService *ai.AIService, sqlFilesDir string) *Handlers {
	return &Handlers{
		queryService: queryService,
		db:           db,
		aiService:    aiService,
		sqlFilesDir:  sqlFilesDir,
	}
}
