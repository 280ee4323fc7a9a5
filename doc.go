// Package labelclean finds mislabeled samples in classification datasets and
// retrains on the samples that remain.
//
// The pipeline estimates out-of-fold class probabilities with stratified
// cross-validation, flags samples whose recorded label the model confidently
// disputes, retrains a fresh classifier on the unflagged subset, and can
// persist the results back into the dataset as versioned tensors on a branch.
//
// # Usage
//
// Detection runs against anything implementing dataset.Dataset; persisting
// results additionally needs dataset.Versioned:
//
//	rep, err := clean.DetectAndClean(ds, linear.NewFactory(),
//		clean.WithShuffle(42),
//		clean.WithCreateTensors(),
//	)
//	if err != nil {
//		return err
//	}
//	view, err := clean.CleanView(ds, rep.IssueMask)
//
// Any classifier implementing model.Classifier plugs in through a
// model.Factory; the linear package ships a logistic-regression default and
// the lake package a file-backed, branchable dataset store.
//
// The labelclean command wraps the pipeline for datasets on disk:
//
//	labelclean init ./mydata --from data.csv
//	labelclean clean ./mydata --shuffle --seed 42 --create-tensors
package labelclean
