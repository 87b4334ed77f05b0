package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bhalbert/rest-api/internal/domain/query/params"
	"github.com/bhalbert/rest-api/internal/search/filters"
	evidenceuc "github.com/bhalbert/rest-api/internal/usecase/evidence"
)

// associationRequest carries the raw association query parameters, from the
// query string on GET or the JSON body on POST.
type associationRequest struct {
	IDs []string `json:"id"`

	Targets         []string `json:"target"`
	Diseases        []string `json:"disease"`
	Pathways        []string `json:"pathway"`
	UniprotKeywords []string `json:"uniprotkw"`
	Datasources     []string `json:"datasource"`
	Datatypes       []string `json:"datatype"`

	Direct        *bool    `json:"direct"`
	ScoreMin      *float64 `json:"scorevalue_min"`
	ScoreMax      *float64 `json:"scorevalue_max"`
	ScoreTypes    []string `json:"scorevalue_types"`
	ScoringMethod string   `json:"association_score_method"`

	Search string   `json:"search"`
	Sort   []string `json:"sort"`
	Size   *int     `json:"size"`
	From   int      `json:"from"`
	Facets bool     `json:"facets"`
	Fields []string `json:"fields"`
	Shape  string   `json:"datastructure"`
}

func (a associationRequest) searchParams() (*params.SearchParams, error) {
	f := params.Filters{
		Targets:         a.Targets,
		Diseases:        a.Diseases,
		Pathways:        a.Pathways,
		UniprotKeywords: a.UniprotKeywords,
		Datasources:     append(append([]string(nil), a.Datasources...), a.Datatypes...),
		IsDirect:        a.Direct,
	}
	if a.ScoreMin != nil {
		f.ScoreMin = *a.ScoreMin
	}
	f.ScoreMax = 1
	if a.ScoreMax != nil {
		f.ScoreMax = *a.ScoreMax
	}

	return params.New(params.Config{
		Size:            a.Size,
		From:            a.From,
		Sort:            a.Sort,
		Search:          a.Search,
		Output:          params.Output(a.Shape),
		Fields:          a.Fields,
		Facets:          a.Facets,
		ScoringMethod:   a.ScoringMethod,
		ScoreDimensions: a.ScoreTypes,
		Filters:         f,
	})
}

// evidenceRequest carries the raw evidence query parameters.
type evidenceRequest struct {
	IDs []string `json:"id"`

	Targets         []string `json:"target"`
	Diseases        []string `json:"disease"`
	EvidenceTypes   []string `json:"eco"`
	Datasources     []string `json:"datasource"`
	Datatypes       []string `json:"datatype"`
	Pathways        []string `json:"pathway"`
	UniprotKeywords []string `json:"uniprotkw"`

	TargetOperator       string `json:"target_operator"`
	DiseaseOperator      string `json:"disease_operator"`
	EvidenceTypeOperator string `json:"evidence_type_operator"`

	// ExpandEfo widens the disease filter to every ontology descendant.
	ExpandEfo bool `json:"expandefo"`

	ScoreMin float64 `json:"scorevalue_min"`
	ScoreMax float64 `json:"scorevalue_max"`

	Size   *int     `json:"size"`
	From   int      `json:"from"`
	Sort   []string `json:"sort"`
	Fields []string `json:"fields"`
}

func (e evidenceRequest) query() evidenceuc.Query {
	return evidenceuc.Query{
		Targets:              e.Targets,
		Diseases:             e.Diseases,
		EvidenceTypes:        e.EvidenceTypes,
		Datasources:          append(append([]string(nil), e.Datasources...), e.Datatypes...),
		Pathways:             e.Pathways,
		UniprotKeywords:      e.UniprotKeywords,
		TargetOperator:       filters.ParseOperator(e.TargetOperator),
		DiseaseOperator:      filters.ParseOperator(e.DiseaseOperator),
		EvidenceTypeOperator: filters.ParseOperator(e.EvidenceTypeOperator),
		IsDirect:             !e.ExpandEfo,
		ScoreMin:             e.ScoreMin,
		ScoreMax:             e.ScoreMax,
		Size:                 e.Size,
		From:                 e.From,
		Sort:                 e.Sort,
		Fields:               e.Fields,
	}
}

func parseAssociationRequest(r *http.Request) (associationRequest, error) {
	var req associationRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		return req, nil
	}

	q := r.URL.Query()
	req.IDs = q["id"]
	req.Targets = q["target"]
	req.Diseases = q["disease"]
	req.Pathways = q["pathway"]
	req.UniprotKeywords = q["uniprotkw"]
	req.Datasources = q["datasource"]
	req.Datatypes = q["datatype"]
	req.ScoreTypes = q["scorevalue_types"]
	req.ScoringMethod = q.Get("association_score_method")
	req.Search = q.Get("search")
	req.Sort = q["sort"]
	req.Fields = q["fields"]
	req.Shape = q.Get("datastructure")

	var err error
	if req.Direct, err = queryBool(q, "direct"); err != nil {
		return req, err
	}
	if req.ScoreMin, err = queryFloat(q, "scorevalue_min"); err != nil {
		return req, err
	}
	if req.ScoreMax, err = queryFloat(q, "scorevalue_max"); err != nil {
		return req, err
	}
	if req.Size, err = queryInt(q, "size"); err != nil {
		return req, err
	}
	from, err := queryInt(q, "from")
	if err != nil {
		return req, err
	}
	if from != nil {
		req.From = *from
	}
	facets, err := queryBool(q, "facets")
	if err != nil {
		return req, err
	}
	req.Facets = facets != nil && *facets

	return req, nil
}

func parseEvidenceRequest(r *http.Request) (evidenceRequest, error) {
	var req evidenceRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		return req, nil
	}

	q := r.URL.Query()
	req.IDs = q["id"]
	req.Targets = q["target"]
	req.Diseases = q["disease"]
	req.EvidenceTypes = q["eco"]
	req.Datasources = q["datasource"]
	req.Datatypes = q["datatype"]
	req.Pathways = q["pathway"]
	req.UniprotKeywords = q["uniprotkw"]
	req.TargetOperator = q.Get("target_operator")
	req.DiseaseOperator = q.Get("disease_operator")
	req.EvidenceTypeOperator = q.Get("evidence_type_operator")
	req.Sort = q["sort"]
	req.Fields = q["fields"]

	expand, err := queryBool(q, "expandefo")
	if err != nil {
		return req, err
	}
	req.ExpandEfo = expand != nil && *expand

	min, err := queryFloat(q, "scorevalue_min")
	if err != nil {
		return req, err
	}
	if min != nil {
		req.ScoreMin = *min
	}
	max, err := queryFloat(q, "scorevalue_max")
	if err != nil {
		return req, err
	}
	if max != nil {
		req.ScoreMax = *max
	}
	if req.Size, err = queryInt(q, "size"); err != nil {
		return req, err
	}
	from, err := queryInt(q, "from")
	if err != nil {
		return req, err
	}
	if from != nil {
		req.From = *from
	}

	return req, nil
}

func queryBool(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean, got %q", name, raw)
	}
	return &v, nil
}

func queryFloat(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return &v, nil
}

func queryInt(q url.Values, name string) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return &v, nil
}
