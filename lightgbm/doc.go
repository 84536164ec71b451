// Package lightgbm provides pure Go inference for gradient boosted tree models
// trained with LightGBM.
//
// Models are read from the text format written by Booster.save_model and from
// the JSON produced by Booster.dump_model. Both are converted into the same
// array based Tree representation, so a model evaluates identically whichever
// format it was shipped in.
//
// # Basic Usage
//
//	model, err := lightgbm.LoadFromFile("models/house_prices.txt")
//	if err != nil {
//	    return err
//	}
//
//	predictor := lightgbm.NewPredictor(model)
//	preds, err := predictor.Predict(X) // X is a *mat.Dense, one row per house
//
// # Model Loading Formats
//
//	model, _ := lightgbm.LoadFromFile("model.txt")      // text
//	model, _ := lightgbm.LoadJSONFromFile("model.json") // JSON
//	model, _ := lightgbm.LoadAuto("model.any")          // sniffed from the first byte
//
// # Decision Rules
//
// Split evaluation follows LightGBM exactly. Numerical nodes send x <= threshold
// to the left child. The decision_type bit field selects categorical splits,
// the default direction and the missing value type (None, Zero or NaN).
// Categorical nodes test membership in a uint32 bitset. Leaf values already
// include the shrinkage rate.
package lightgbm
