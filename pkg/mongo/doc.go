// Package mongo connects to MongoDB with the v2 driver for the tenant
// mongostore.
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connect retries until the primary answers a ping or the attempts run
// out. Healthcheck plugs into httpserver.HealthHandler.
package mongo
