package shopify

// MetaobjectsQuery lists metaobjects of one type, optionally filtered by a
// search query such as "status:pending".
const MetaobjectsQuery = `
query metaobjects($type: String!, $first: Int!, $query: String) {
  metaobjects(type: $type, first: $first, query: $query) {
    nodes {
      id
      handle
      fields {
        key
        value
      }
    }
  }
}
`

const MetaobjectByHandleQuery = `
query metaobjectByHandle($handle: MetaobjectHandleInput!) {
  metaobjectByHandle(handle: $handle) {
    id
    handle
    fields {
      key
      value
    }
  }
}
`

const MetaobjectCreateMutation = `
mutation metaobjectCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject {
      id
      handle
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

const MetaobjectUpdateMutation = `
mutation metaobjectUpdate($id: ID!, $metaobject: MetaobjectUpdateInput!) {
  metaobjectUpdate(id: $id, metaobject: $metaobject) {
    metaobject {
      id
      handle
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

// ProductsQuery fetches products for the setup wizard.
const ProductsQuery = `
query products($first: Int!) {
  products(first: $first) {
    nodes {
      legacyResourceId
      title
      handle
      featuredImage {
        url
      }
    }
  }
}
`

// OrdersQuery fetches the most recent orders, any status.
const OrdersQuery = `
query orders($first: Int!) {
  orders(first: $first, sortKey: CREATED_AT, reverse: true) {
    nodes {
      name
      createdAt
      displayFinancialStatus
      totalPriceSet {
        shopMoney {
          amount
          currencyCode
        }
      }
      customer {
        firstName
        lastName
        email
      }
    }
  }
}
`
