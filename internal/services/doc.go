// Package services sits between the adapters (CLI and HTTP) and the merge
// core. MergeService turns file paths or uploads into grids, runs one merge
// and writes the CSV; HealthService answers health and version probes.
//
//	svc := services.NewMergeService(merger, cfg.Merge, logger)
//	result, path, err := svc.MergeToFile(ctx, services.MergeRequest{
//	    Sources:    sources,
//	    Parameters: params,
//	}, "merged_experiment_data.csv", nil)
package services
