// Command houseprice serves a small web application that predicts house
// prices with a pre-trained gradient boosted tree model.
//
// The model is a LightGBM artifact (text or JSON dump) evaluated in pure Go,
// so no native runtime is required. The service reloads the artifact for
// every prediction and never trains.
//
// # Pages
//
// The UI has two pages selected from the sidebar menu:
//
//   - Информация: a description of the task, the input data and the model.
//   - Прогнозирование: upload a CSV of preprocessed house features and get
//     the uploaded table, one predicted price per row and a histogram of the
//     predictions.
//
// Uploaded columns must match the model's features by name (column order
// does not matter). An "Id" column is kept as row labels and a "SalePrice"
// column, when present, is used to report RMSE, MAE, MAPE and R².
//
// # Usage
//
//	houseprice serve --addr :8080 --model models/house_prices.txt
//	houseprice predict --input houses.csv --histogram hist.png > predictions.csv
//	houseprice describe --model models/house_prices.txt
//
// JSON predictions are available at POST /api/v1/predict, either as a
// multipart upload (field "file") or a raw text/csv body.
//
// # Configuration
//
// Settings come from defaults, then an optional .env file (or --env-file),
// then HOUSEPRICE_* environment variables:
//
//	HOUSEPRICE_ADDR             listen address (:8080)
//	HOUSEPRICE_MODEL_PATH       model artifact (models/house_prices.txt)
//	HOUSEPRICE_ID_COLUMN        row label column (Id)
//	HOUSEPRICE_TARGET_COLUMN    known price column (SalePrice)
//	HOUSEPRICE_MAX_UPLOAD_BYTES upload size limit (10 MiB)
//	HOUSEPRICE_MAX_ROWS         row limit per upload (100000)
//	HOUSEPRICE_MAX_DISPLAY_ROWS rows rendered per table (200)
//	HOUSEPRICE_HISTOGRAM_BINS   0 chooses the bin count automatically
//	HOUSEPRICE_LOG_LEVEL        debug, info, warn or error
//	HOUSEPRICE_LOG_FORMAT       json or console
//	HOUSEPRICE_RATE_LIMIT       prediction requests per second, 0 disables
//	HOUSEPRICE_RATE_BURST       rate limiter burst
//	HOUSEPRICE_SENTRY_DSN       report internal errors to Sentry
//	HOUSEPRICE_ENV              environment name sent to Sentry
//
// # Packages
//
//   - lightgbm: model artifact loading and tree evaluation
//   - dataset: CSV parsing into a numeric table
//   - regressor: per-request model loading, schema alignment, prediction
//   - metrics: prediction summary and regression metrics
//   - visualize: histogram PNG and display tables
//   - web: HTTP pages, JSON API and middleware
//   - config, cmd: configuration and command line
//   - pkg/errors, pkg/log: error taxonomy and structured logging
package main
