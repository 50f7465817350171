package views

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ramen-directory/internal/controller"
	"ramen-directory/internal/models"
)

// OwnedShop is the owner dashboard: the owner's shop page plus the shop
// edit form.
type OwnedShop struct {
	*ShopDetail
}

// ShopOutcome is the result of a shop submit.
type ShopOutcome struct {
	Shop   *ShopView               `json:"shop,omitempty"`
	Report controller.SubmitReport `json:"report"`
	Form   *FormView               `json:"form,omitempty"`
}

// NewOwnedShop builds the dashboard for the shop named in the session.
func NewOwnedShop(d Deps) (*OwnedShop, error) {
	claims, ok := d.Session.Claims()
	if !ok {
		return nil, ErrLoginRequired
	}
	if !claims.IsShopOwner() || claims.ShopID == nil {
		return nil, ErrNoShop
	}
	return &OwnedShop{ShopDetail: NewShopDetail(d, *claims.ShopID)}, nil
}

func ShopFormKey(shopID int64) string { return fmt.Sprintf("shop-%d", shopID) }

// OpenShopForm opens the edit form over the loaded shop's media.
func (v *OwnedShop) OpenShopForm() (FormView, error) {
	shop, ok := v.Shop()
	if !ok {
		return FormView{}, &controller.ValidationError{Field: "shop", Message: "shop is not loaded"}
	}
	key := ShopFormKey(v.shopID)
	v.track(key)
	form := v.forms.Open(key, v.d.limits().ShopMedia, v.shopID, shop.Media)
	return presentForm(key, form, v.d.Resolver), nil
}

// SubmitShop saves the shop fields and applies the staged media changes.
func (v *OwnedShop) SubmitShop(ctx context.Context, in models.ShopInput) (ShopOutcome, error) {
	if !v.d.Session.Authenticated() {
		return ShopOutcome{}, ErrLoginRequired
	}
	if err := required("name", in.Name); err != nil {
		return ShopOutcome{}, err
	}
	if err := required("address", in.Address); err != nil {
		return ShopOutcome{}, err
	}

	if _, err := v.OpenShopForm(); err != nil {
		return ShopOutcome{}, err
	}
	key := ShopFormKey(v.shopID)
	form, err := v.forms.Get(key)
	if err != nil {
		return ShopOutcome{}, err
	}

	report, err := form.Submit(ctx, in, controller.Operations{
		Upsert: func(ctx context.Context, _ any) (int64, error) {
			_, err := v.d.Shops.UpdateShop(ctx, v.shopID, in)
			return v.shopID, err
		},
		DeleteMedia: v.d.Shops.DeleteShopMedia,
		UploadMedia: v.d.Shops.UploadShopMedia,
	})
	if err != nil {
		return ShopOutcome{}, err
	}

	v.loadShop(ctx)
	out := ShopOutcome{Report: report}
	if shop, ok := v.Shop(); ok {
		sv := presentShop(shop, v.d.Resolver)
		out.Shop = &sv
		form.SetExisting(shop.Media)
	}
	if report.Complete() {
		v.closeForm(key)
	} else {
		v.logger.Warn("shop media changes pending", zap.Error(report.Err()))
		fv := presentForm(key, form, v.d.Resolver)
		out.Form = &fv
	}
	return out, nil
}
