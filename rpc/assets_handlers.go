package rpc

import (
	"net/http"
	"strings"

	"curio/native/assets"
)

type assetsRegisterParams struct {
	Collection string `json:"collection"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
}

type assetsMintParams struct {
	Collection string `json:"collection"`
	ItemID     uint64 `json:"itemId"`
	Creator    string `json:"creator"`
	Holder     string `json:"holder"`
	URI        string `json:"uri"`
	Amount     string `json:"amount"`
}

type assetsItemQueryParams struct {
	Collection string `json:"collection"`
	ItemID     uint64 `json:"itemId"`
	Holder     string `json:"holder,omitempty"`
}

type assetsCollectionResult struct {
	Collection string `json:"collection"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
}

type assetsItemResult struct {
	Collection string `json:"collection"`
	ItemID     uint64 `json:"itemId"`
	Creator    string `json:"creator"`
	URI        string `json:"uri"`
	MetaHash   string `json:"metaHash"`
	Supply     string `json:"supply"`
}

func parseAssetKind(value string) (assets.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "unique":
		return assets.KindUnique, true
	case "multiunit", "multi-unit":
		return assets.KindMultiUnit, true
	default:
		return assets.KindUnsupported, false
	}
}

func (s *Server) handleAssetsRegister(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetsRegisterParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	kind, ok := parseAssetKind(params.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "kind must be unique or multiunit", params.Kind)
		return
	}
	col, err := s.node.AssetsRegister(collection, kind, params.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAssetError, "failed to register collection", err.Error())
		return
	}
	writeResult(w, req.ID, assetsCollectionResult{
		Collection: formatAddress(col.Address),
		Kind:       col.Kind.String(),
		Name:       col.Name,
	})
}

func (s *Server) handleAssetsMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetsMintParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	creator, err := decodeAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	item, err := s.node.AssetsMint(collection, params.ItemID, creator, holder, params.URI, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAssetError, "failed to mint item", err.Error())
		return
	}
	writeResult(w, req.ID, assetsItemResult{
		Collection: formatAddress(collection),
		ItemID:     item.ID,
		Creator:    formatAddress(item.Creator),
		URI:        item.URI,
		MetaHash:   formatHash(item.MetaHash),
		Supply:     bigString(item.Supply),
	})
}

func (s *Server) handleAssetsOwnerOrBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetsItemQueryParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	held, err := s.node.AssetsOwnerOrBalance(collection, params.ItemID, holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAssetError, "failed to query holdings", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"held": held.String()})
}

func (s *Server) handleAssetsLocator(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params assetsItemQueryParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	uri, err := s.node.AssetsLocator(collection, params.ItemID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAssetError, "failed to resolve locator", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"uri": uri})
}
