package core

// Balance folds the signed amounts of the given transactions.
// The fold is order-independent; callers may pass the list in any
// order and always get the same result.
func Balance(txs []Transaction) Money {
	var total int64
	for _, t := range txs {
		total += t.Signed()
	}
	return Money{Cents: total}
}
