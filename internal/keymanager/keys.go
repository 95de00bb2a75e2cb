package keymanager

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"voting-ledger/internal/model"

	"github.com/btcsuite/btcd/btcec"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type UserKeys struct {
	PrivateKey signing.PrivateKey
	PublicKey  signing.PublicKey
}

func (u UserKeys) GetSigner() *signing.Signer {
	cryptoFactory := signing.NewCryptoFactory(signing.NewSecp256k1Context())
	return cryptoFactory.NewSigner(u.PrivateKey)
}

// Address is the ballot identity of the key owner: the compressed public key in hex
func (u UserKeys) Address() model.Address {
	return model.Address(u.PublicKey.AsHex())
}

type KeyManager struct {
	logger   *zap.Logger
	keyCache *cache.Cache
}

func NewKeyManager(logger *zap.Logger) KeyManager {
	return KeyManager{
		logger:   logger,
		keyCache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// source: https://github.com/ethereum/go-ethereum/blob/86d547707965685cef732aa28c15e6811ea98408/crypto/secp256k1/secp256_test.go#L19
func (k KeyManager) GenerateKeys() (UserKeys, error) {
	key, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return UserKeys{}, errors.New("failed to generate the keys: " + err.Error())
	}

	privkey := make([]byte, 32)
	blob := key.D.Bytes()
	copy(privkey[32-len(blob):], blob)

	keys := newUserKeys(signing.NewSecp256k1PrivateKey(privkey))
	k.keyCache.SetDefault(keys.PublicKey.AsHex(), keys)
	k.logger.Debug("generated new keys", zap.String("publicKey", keys.PublicKey.AsHex()))

	return keys, nil
}

// LoadKeys parses a hex encoded private key and remembers it
func (k KeyManager) LoadKeys(privateKeyHex string) (UserKeys, error) {
	privkey, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return UserKeys{}, errors.New("failed to decode the private key: " + err.Error())
	}
	if len(privkey) != 32 {
		return UserKeys{}, errors.New("invalid private key length")
	}

	keys := newUserKeys(signing.NewSecp256k1PrivateKey(privkey))
	k.keyCache.SetDefault(keys.PublicKey.AsHex(), keys)

	return keys, nil
}

// GetKeys returns the keys generated or loaded before for the public key
func (k KeyManager) GetKeys(publicKey string) (UserKeys, bool) {
	keys, ok := k.keyCache.Get(publicKey)
	if !ok {
		return UserKeys{}, false
	}

	return keys.(UserKeys), true
}

func newUserKeys(privateKey signing.PrivateKey) UserKeys {
	return UserKeys{
		PrivateKey: privateKey,
		PublicKey:  signing.NewSecp256k1Context().GetPublicKey(privateKey),
	}
}
