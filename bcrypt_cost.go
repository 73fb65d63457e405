//go:build !race

package accounts

func passwordHashCost() int {
	return BcryptCost
}
