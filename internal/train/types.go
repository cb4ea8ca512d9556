package train

import "time"

// EpochStat is what one pass over the training set produced.
type EpochStat struct {
	Epoch     int           `json:"epoch"`
	TrainLoss float64       `json:"train_loss"`
	TrainAcc  float64       `json:"train_acc"`
	ValLoss   float64       `json:"val_loss,omitempty"`
	ValAcc    float64       `json:"val_acc,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Result summarizes a whole run. BestEpoch is 1-based and zero when no
// validation set was given.
type Result struct {
	Epochs      []EpochStat `json:"epochs"`
	BestEpoch   int         `json:"best_epoch,omitempty"`
	BestValCost float64     `json:"best_val_cost,omitempty"`
	NetPath     string      `json:"net_path,omitempty"`
}
