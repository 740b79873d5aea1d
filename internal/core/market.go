package core

import (
	"context"

	"monkeycore/pkg/domain"
)

// SetOffer lists id for sale at price. The seller must own the asset and
// have granted the marketplace operator approval. Listing an asset that is
// already listed fails with ErrOfferAlreadyActive; the existing offer is
// kept unchanged.
func (s *Service) SetOffer(ctx context.Context, seller Identity, price Amount, id AssetID) (Offer, Result, error) {
	var listed Offer
	res, err := s.mutate(ctx, opSetOffer, seller, func(tx Transaction, op *operation) error {
		op.entityID = id
		if err := requireNotPaused(tx, DomainMarket); err != nil {
			return err
		}
		a, ok := tx.FindAsset(id)
		if !ok || id == domain.SentinelAssetID || seller.IsNull() || a.Owner != seller {
			return domain.ErrNotOwner
		}
		if !tx.IsOperator(seller, s.cfg.Marketplace) {
			return domain.ErrNoOperatorApproval
		}
		var err error
		if listed, err = tx.PutOffer(Offer{Seller: seller, TokenID: id, Price: price}); err != nil {
			return err
		}
		op.emit(domain.MarketTransaction{Kind: domain.MarketCreateOffer, Actor: seller, ID: id})
		op.emit(domain.OfferCreated{Seller: seller, ID: id})
		return nil
	})
	return listed, res, err
}

// RemoveOffer withdraws the active offer for id. Only the asset owner, who
// is always the offer's seller, may withdraw it.
func (s *Service) RemoveOffer(ctx context.Context, caller Identity, id AssetID) (Result, error) {
	return s.mutate(ctx, opRemoveOffer, caller, func(tx Transaction, op *operation) error {
		op.entityID = id
		if err := requireNotPaused(tx, DomainMarket); err != nil {
			return err
		}
		a, ok := tx.FindAsset(id)
		if !ok || caller.IsNull() || a.Owner != caller {
			return domain.ErrNotOwner
		}
		if _, err := tx.DeleteOffer(id); err != nil {
			return err
		}
		op.emit(domain.MarketTransaction{Kind: domain.MarketRemoveOffer, Actor: caller, ID: id})
		op.emit(domain.OfferRemoved{Actor: caller, ID: id})
		return nil
	})
}

// BuyMonkey settles the active offer for id. paid must equal the offer
// price exactly. The buyer is charged and the seller paid in the sale
// currency, then the asset moves to the buyer and the offer closes, all
// within one transaction.
func (s *Service) BuyMonkey(ctx context.Context, buyer Identity, id AssetID, paid Amount) (Result, error) {
	return s.mutate(ctx, opBuyMonkey, buyer, func(tx Transaction, op *operation) error {
		op.entityID = id
		if err := requireNotPaused(tx, DomainMarket); err != nil {
			return err
		}
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		offer, ok := tx.FindOffer(id)
		if !ok {
			return domain.ErrNoActiveOffer
		}
		if !paid.Equal(offer.Price) {
			return domain.ErrWrongAmount
		}
		if buyer.IsNull() {
			return domain.ErrNullRecipient
		}
		if buyer == offer.Seller {
			return domain.ErrUnauthorized
		}
		if !tx.IsOperator(offer.Seller, s.cfg.Marketplace) {
			return domain.ErrNoOperatorApproval
		}
		if err := tx.Charge(s.sales, buyer, offer.Price); err != nil {
			return err
		}
		if err := tx.Pay(s.sales, offer.Seller, offer.Price); err != nil {
			return err
		}
		if _, err := tx.SettleOffer(id, buyer); err != nil {
			return err
		}
		op.emit(domain.MarketTransaction{Kind: domain.MarketBuy, Actor: buyer, ID: id})
		op.emit(domain.AssetSold{Seller: offer.Seller, Buyer: buyer, Price: offer.Price, ID: id})
		op.emit(domain.AssetTransferred{From: offer.Seller, To: buyer, ID: id})
		return nil
	})
}

// GetOffer returns the active offer for id, or ErrNoActiveOffer.
func (s *Service) GetOffer(ctx context.Context, id AssetID) (Offer, error) {
	var o Offer
	err := s.view(ctx, func(v TransactionView) error {
		var ok bool
		if o, ok = v.FindOffer(id); !ok {
			return domain.ErrNoActiveOffer
		}
		return nil
	})
	return o, err
}

// GetAllActiveOfferIDs returns the listed asset ids in offer array order.
// The list is rebuilt on every call.
func (s *Service) GetAllActiveOfferIDs(ctx context.Context) ([]AssetID, error) {
	var ids []AssetID
	err := s.view(ctx, func(v TransactionView) error {
		ids = v.ActiveOfferIDs()
		return nil
	})
	return ids, err
}

// OfferAt returns the offer at position index of the offer array. Only the
// market owner may inspect the array directly.
func (s *Service) OfferAt(ctx context.Context, caller Identity, index int) (Offer, error) {
	var o Offer
	err := s.view(ctx, func(v TransactionView) error {
		if err := requireOwner(v, DomainMarket, caller); err != nil {
			return err
		}
		var ok bool
		if o, ok = v.OfferAt(index); !ok {
			return domain.ErrOfferNotFound
		}
		return nil
	})
	return o, err
}
