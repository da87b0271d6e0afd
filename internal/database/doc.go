// Package database provides the document store adapter for the application.
//
// # Architecture
//
// The database layer is organized into one sub-package per collection:
//
//	database/
//	├── database.go      # Connection setup, migrations, transactions
//	├── users/           # Accounts
//	├── books/           # Books offered for lending
//	├── bookrequests/    # Borrow requests and their status
//	├── materials/       # Study materials and rating aggregates
//	├── ratings/         # Individual rating votes
//	├── posts/           # Forum posts
//	└── replies/         # Forum reply tree nodes
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, log)
//	requestsRepo := bookrequests.NewRepository(db.DB)
//	req, err := requestsRepo.GetByID(ctx, 42)
//
// # Transactions
//
// Database.Transaction binds a transaction to the context it passes to the
// callback. Every repository method resolves its connection with Conn, so
// repository calls made with that context join the transaction:
//
//	err := db.Transaction(ctx, func(ctx context.Context) error {
//		if err := requestsRepo.Save(ctx, req); err != nil {
//			return err
//		}
//		return requestsRepo.UpdateStatus(ctx, siblingID, entities.RequestStatusDeclined)
//	})
//
// Calls made inside the callback with an outer context bypass the
// transaction and, on SQLite, block on the single pooled connection.
//
// # Errors
//
// Repositories return gorm errors unchanged. Use IsNotFound and
// IsUniqueViolation to classify them.
package database
